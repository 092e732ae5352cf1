package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coinpulse/backend/middleware"
)

func authRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	ac := NewAuthController(db)
	r.POST("/api/auth/signup", ac.Signup)
	r.POST("/api/auth/login", ac.Login)
	r.GET("/api/auth/me", middleware.AuthRequired(), ac.Me)
	r.POST("/api/auth/logout", middleware.AuthRequired(), ac.Logout)
	return r
}

type sessionPayload struct {
	Token string `json:"token"`
	User  struct {
		ID          uint   `json:"id"`
		Email       string `json:"email"`
		SharePoints int    `json:"share_points"`
	} `json:"user"`
}

func TestSignupAndLogin(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(db)

	w := performJSON(t, r, http.MethodPost, "/api/auth/signup",
		gin.H{"email": "New@Example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created sessionPayload
	decodeData(t, decodeEnvelope(t, w), &created)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "new@example.com", created.User.Email, "email is normalized")
	assert.Equal(t, 0, created.User.SharePoints)

	// duplicate email is rejected
	w = performJSON(t, r, http.MethodPost, "/api/auth/signup",
		gin.H{"email": "new@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40903, decodeEnvelope(t, w).Code)

	// login with the same credentials
	w = performJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "NEW@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var session sessionPayload
	decodeData(t, decodeEnvelope(t, w), &session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, created.User.ID, session.User.ID)
}

func TestSignupValidation(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(db)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing email", gin.H{"password": "hunter22"}},
		{"bad email", gin.H{"email": "not-an-email", "password": "hunter22"}},
		{"short password", gin.H{"email": "a@example.com", "password": "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performJSON(t, r, http.MethodPost, "/api/auth/signup", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 40001, decodeEnvelope(t, w).Code)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(db)
	createTestUser(t, db, "user@example.com")

	w := performJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "user@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40106, decodeEnvelope(t, w).Code)

	w = performJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "ghost@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40106, decodeEnvelope(t, w).Code)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(db)
	user := createTestUser(t, db, "user@example.com")
	token := tokenFor(t, user)

	w := performJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me sessionPayload
	decodeData(t, decodeEnvelope(t, w), &me)
	assert.Equal(t, user.ID, me.User.ID)
	assert.Equal(t, "user@example.com", me.User.Email)

	w = performJSON(t, r, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(t, r, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	db := setupTestDB(t)
	r := authRouter(db)
	token := tokenFor(t, createTestUser(t, db, "user@example.com"))

	w := performJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(t, r, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	// the same token no longer works
	w = performJSON(t, r, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
