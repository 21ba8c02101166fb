package mock

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Register mounts the Google-shaped endpoints and the admin routes.
func (p *Provider) Register(r gin.IRouter) {
	r.GET("/o/oauth2/auth", p.handleAuthorize)
	r.POST("/token", p.handleToken)
	r.GET("/v1/userinfo", p.handleUserInfo)

	// Admin endpoints for testing
	admin := r.Group("/admin")
	{
		admin.GET("/users", p.handleListUsers)
		admin.POST("/users/add", p.handleAddUsers)
	}
}

func (p *Provider) handleAuthorize(c *gin.Context) {
	if rt := c.Query("response_type"); rt != "" && rt != "code" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_response_type"})
		return
	}

	redirect, err := p.Authorize(AuthorizeRequest{
		ClientID:            c.Query("client_id"),
		RedirectURI:         c.Query("redirect_uri"),
		State:               c.Query("state"),
		CodeChallenge:       c.Query("code_challenge"),
		CodeChallengeMethod: c.Query("code_challenge_method"),
		LoginHint:           c.Query("login_hint"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, redirect)
}

func (p *Provider) handleToken(c *gin.Context) {
	if gt := c.PostForm("grant_type"); gt != "authorization_code" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}

	// oauth2 clients send credentials either as basic auth or in the form
	clientID, _, ok := c.Request.BasicAuth()
	if !ok {
		clientID = c.PostForm("client_id")
	}

	access, ttl, err := p.Token(TokenRequest{
		ClientID:     clientID,
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		CodeVerifier: c.PostForm("code_verifier"),
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrInvalidClient) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
		"scope":        "openid email profile",
	})
}

func (p *Provider) handleUserInfo(c *gin.Context) {
	header := c.GetHeader("Authorization")
	accessToken, found := strings.CutPrefix(header, "Bearer ")
	if !found || accessToken == "" {
		c.Header("WWW-Authenticate", `Bearer realm="userinfo"`)
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
		return
	}

	user, err := p.UserInfo(accessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sub":            user.ID,
		"email":          user.Email,
		"email_verified": true,
		"name":           user.Name,
		"picture":        user.Picture,
	})
}

func (p *Provider) handleListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, p.Users())
}

func (p *Provider) handleAddUsers(c *gin.Context) {
	var req struct {
		NumUsers int `json:"numUsers"`
	}

	// Try JSON body first
	if err := c.ShouldBindJSON(&req); err != nil {
		// Fall back to query parameter
		if num, err := strconv.Atoi(c.DefaultQuery("numUsers", "1")); err == nil {
			req.NumUsers = num
		}
	}
	if req.NumUsers < 1 {
		req.NumUsers = 1
	}

	total, err := p.AddUsers(req.NumUsers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added":   req.NumUsers,
		"total":   total,
		"message": fmt.Sprintf("Added %d user(s). Total users: %d", req.NumUsers, total),
	})
}
