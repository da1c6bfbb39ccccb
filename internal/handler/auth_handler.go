package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the admin credentials and opens a session.
func (a *API) Login(c *gin.Context) {
	var input loginInput
	if !bindJSON(c, &input, "invalid login payload") {
		return
	}

	var user db.User
	if err := a.db.WithContext(c.Request.Context()).
		Where("username = ?", input.Username).
		First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout clears the session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.logger.Error("clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AuthRequired rejects requests without an authenticated session.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get("user_id") == nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}
