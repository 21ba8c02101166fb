package people

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

// memoryRepo keeps people in insertion order and lists newest first.
type memoryRepo struct {
	mu      sync.Mutex
	people  []models.Person
	nextID  int64
	clock   time.Time
	listErr error
	saveErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *memoryRepo) List(ctx context.Context, owner uuid.NullUUID) ([]models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Person, 0, len(r.people))
	for i := len(r.people) - 1; i >= 0; i-- {
		p := r.people[i]
		if owner.Valid && p.UserID != owner {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, in models.NewPerson) (*models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.nextID++
	r.clock = r.clock.Add(time.Second)
	p := models.Person{
		ID:        r.nextID,
		UserID:    in.UserID,
		Name:      in.Name,
		Company:   in.Company,
		CreatedAt: r.clock,
		UpdatedAt: r.clock,
	}
	r.people = append(r.people, p)
	return &p, nil
}

// withUser stands in for the session middleware.
func withUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetSession(c, &auth.Session{User: auth.SessionUser{ID: id.String(), Email: "ada@example.com"}})
		c.Next()
	}
}

func newEngine(h *Handler, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	h.Register(r)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type listResponse struct {
	People []models.Person `json:"people"`
}

type createResponse struct {
	Person models.Person `json:"person"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func TestList_Empty(t *testing.T) {
	r := newEngine(NewHandler(newMemoryRepo(), zap.NewNop(), false))

	rec := doJSON(r, http.MethodGet, "/api/people", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"people":[]}`, rec.Body.String())
}

func TestCreate_ValidPerson(t *testing.T) {
	repo := newMemoryRepo()
	r := newEngine(NewHandler(repo, zap.NewNop(), false))

	rec := doJSON(r, http.MethodPost, "/api/people", `{"name":"Ada Lovelace","company":"Analytical Engines"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Person.ID)
	assert.Equal(t, "Ada Lovelace", got.Person.Name)
	require.NotNil(t, got.Person.Company)
	assert.Equal(t, "Analytical Engines", *got.Person.Company)
	assert.Nil(t, got.Person.Email)
	assert.False(t, got.Person.UserID.Valid)

	rec = doJSON(r, http.MethodGet, "/api/people", "")
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.People, 1)
	assert.Equal(t, got.Person.ID, list.People[0].ID)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"whitespace name", `{"name":"   ","company":"X"}`, "Name is required"},
		{"missing name", `{"company":"X"}`, "Name is required"},
		{"numeric name", `{"name":7}`, "Name is required"},
		{"null body", `null`, "Name is required"},
		{"malformed json", `{"name":`, "Invalid request body"},
		{"empty body", ``, "Invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			r := newEngine(NewHandler(repo, zap.NewNop(), false))

			rec := doJSON(r, http.MethodPost, "/api/people", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.wantMsg, got.Error)
			assert.Empty(t, repo.people)
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	r := newEngine(NewHandler(newMemoryRepo(), zap.NewNop(), false))

	names := []string{"Ada", "Grace", "Linus"}
	for _, n := range names {
		rec := doJSON(r, http.MethodPost, "/api/people", `{"name":"`+n+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(r, http.MethodGet, "/api/people", "")
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.People, len(names))
	assert.Equal(t, "Linus", list.People[0].Name)
	assert.Equal(t, "Ada", list.People[2].Name)
	for i := 1; i < len(list.People); i++ {
		assert.False(t, list.People[i].CreatedAt.After(list.People[i-1].CreatedAt))
	}
}

func TestStoreErrors(t *testing.T) {
	storeErr := db.Wrap("list people", &pgconn.PgError{Code: "42501", Message: "permission denied for table people"})

	tests := []struct {
		name    string
		err     error
		method  string
		body    string
		wantMsg string
	}{
		{"list store error", storeErr, http.MethodGet, "", "permission denied for table people"},
		{"create store error", db.Wrap("create person", errors.New("connection reset")), http.MethodPost, `{"name":"Ada"}`, "connection reset"},
		{"list unexpected error", errors.New("boom"), http.MethodGet, "", "Internal server error"},
		{"create unexpected error", errors.New("boom"), http.MethodPost, `{"name":"Ada"}`, "Internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			repo.listErr, repo.saveErr = tc.err, tc.err
			core, logs := observer.New(zap.ErrorLevel)
			r := newEngine(NewHandler(repo, zap.New(core), false))

			rec := doJSON(r, tc.method, "/api/people", tc.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var got errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.wantMsg, got.Error)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestCreate_StampsSessionUser(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	r := newEngine(NewHandler(repo, zap.NewNop(), false), withUser(id))

	rec := doJSON(r, http.MethodPost, "/api/people", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.people, 1)
	assert.Equal(t, uuid.NullUUID{UUID: id, Valid: true}, repo.people[0].UserID)
}

func TestEnforceOwnership(t *testing.T) {
	repo := newMemoryRepo()
	alice, bob := uuid.New(), uuid.New()

	t.Run("anonymous is rejected", func(t *testing.T) {
		r := newEngine(NewHandler(repo, zap.NewNop(), true))
		assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/people", "").Code)
		assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/api/people", `{"name":"Ada"}`).Code)
		assert.Empty(t, repo.people)
	})

	t.Run("lists only own rows", func(t *testing.T) {
		ra := newEngine(NewHandler(repo, zap.NewNop(), true), withUser(alice))
		rb := newEngine(NewHandler(repo, zap.NewNop(), true), withUser(bob))

		require.Equal(t, http.StatusCreated, doJSON(ra, http.MethodPost, "/api/people", `{"name":"Ada"}`).Code)
		require.Equal(t, http.StatusCreated, doJSON(rb, http.MethodPost, "/api/people", `{"name":"Grace"}`).Code)

		var list listResponse
		require.NoError(t, json.Unmarshal(doJSON(ra, http.MethodGet, "/api/people", "").Body.Bytes(), &list))
		require.Len(t, list.People, 1)
		assert.Equal(t, "Ada", list.People[0].Name)
	})

	t.Run("disabled shows everything", func(t *testing.T) {
		r := newEngine(NewHandler(repo, zap.NewNop(), false), withUser(alice))
		var list listResponse
		require.NoError(t, json.Unmarshal(doJSON(r, http.MethodGet, "/api/people", "").Body.Bytes(), &list))
		assert.Len(t, list.People, 2)
	})
}
