package people

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

const (
	msgInternal     = "Internal server error"
	msgInvalidBody  = "Invalid request body"
	msgNameRequired = "Name is required"
	msgUnauthorized = "Unauthorized"
)

// Handler serves the contacts API.
//
// With enforceOwnership off, the endpoints neither require a session nor
// filter by owner; created rows are still stamped with the session user
// when one is present.
type Handler struct {
	repo             Repository
	logger           *zap.Logger
	enforceOwnership bool
}

func NewHandler(repo Repository, logger *zap.Logger, enforceOwnership bool) *Handler {
	return &Handler{repo: repo, logger: logger, enforceOwnership: enforceOwnership}
}

func (h *Handler) Register(r gin.IRouter) {
	people := r.Group("/api/people")
	{
		people.GET("", h.List)
		people.POST("", h.Create)
	}
}

func (h *Handler) List(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var filter uuid.NullUUID
	if h.enforceOwnership {
		filter = owner
	}

	people, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "Error fetching people", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"people": people})
}

func (h *Handler) Create(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	in, err := newPerson(req, owner)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNameRequired})
		return
	}

	person, err := h.repo.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "Error creating person", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"person": person})
}

// owner resolves the session user. It aborts with 401 and returns false
// when ownership is enforced and there is no internal user id.
func (h *Handler) owner(c *gin.Context) (uuid.NullUUID, bool) {
	owner := auth.CurrentUserID(c)
	if h.enforceOwnership && !owner.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return owner, false
	}
	return owner, true
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	var storeErr *db.Error
	if errors.As(err, &storeErr) {
		h.logger.Error(msg, zap.String("op", storeErr.Op), zap.String("code", storeErr.Code()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": storeErr.Message()})
		return
	}

	h.logger.Error("Unexpected error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
