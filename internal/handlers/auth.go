package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"investcore/internal/middleware"
	"investcore/internal/services/investment"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login verifies credentials and sets the session cookie.
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, err := svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, investment.ErrInvalidCredentials) {
		respondFail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, token, int(jwtManager.Expiry().Seconds()))
	logrus.WithField("user_id", user.ID).Info("User logged in")
	respondOK(c, SessionUser{ID: user.ID, Email: user.Email, Role: user.Role})
}

// Logout clears the session cookie.
func Logout(c *gin.Context) {
	setSessionCookie(c, "", -1)
	respondOK(c, gin.H{"loggedOut": true})
}

// Me echoes the authenticated session.
func Me(c *gin.Context) {
	respondOK(c, SessionUser{
		ID:    middleware.CurrentUserID(c),
		Email: c.GetString(middleware.ContextUserEmail),
		Role:  c.GetString(middleware.ContextUserRole),
	})
}

func setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, value, maxAge, "/", "", cookieSecure, true)
}
