// Package user contient les handlers de l'espace client.
package user

import (
	"context"
	"net/http"
	"strings"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/middleware"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthService interface {
	Register(ctx context.Context, in auth.NewUser) (models.SessionUser, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error
}

type AuthHandler struct {
	svc AuthService
	log logrus.FieldLogger
}

func NewAuthHandler(svc AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	u, err := h.svc.Register(c.Request.Context(), auth.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}

	h.log.WithField("user_id", u.ID).Info("✅ Inscription réussie")
	c.JSON(http.StatusCreated, gin.H{"message": "Compte créé avec succès", "user": u})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}

	h.log.WithFields(logrus.Fields{"user_id": res.User.ID, "role": res.User.Role}).Info("🔑 Connexion réussie")
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token requis"})
		return
	}

	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/logout (authentifié) ; le refresh token du corps est optionnel.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Logout(c.Request.Context(), claims, strings.TrimSpace(req.RefreshToken)); err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}

	h.log.WithField("user_id", claims.UserID).Info("👋 Déconnexion")
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}
