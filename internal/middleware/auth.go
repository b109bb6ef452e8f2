package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Clés posées dans le contexte gin par AuthRequired.
const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxRole     = "role"
	CtxUsername = "username"
	CtxClaims   = "claims"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, models.SessionUser, error)
}

// RoleForgetter oublie le rôle mis en cache d'un utilisateur.
type RoleForgetter interface {
	Forget(ctx context.Context, userID string)
}

func AuthRequired(a Authenticator, roles RoleForgetter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "Token manquant")
			return
		}

		claims, user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			// Sujet connu mais session refusée : on oublie le rôle en cache.
			if claims != nil && claims.UserID != "" && roles != nil {
				roles.Forget(c.Request.Context(), claims.UserID)
			}
			switch {
			case errors.Is(err, auth.ErrTokenRevoked):
				unauthorized(c, "Session expirée, veuillez vous reconnecter")
			case errors.Is(err, auth.ErrInvalidToken):
				unauthorized(c, "Token invalide")
			default:
				log.WithError(err).Error("❌ Vérification de session impossible")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			}
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxEmail, user.Email)
		c.Set(CtxRole, user.Role)
		c.Set(CtxUsername, user.Username)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// RequireAdmin vérifie que l'utilisateur a le rôle "admin".
func RequireAdmin(c *gin.Context) {
	if c.GetString(CtxRole) != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		return
	}
	c.Next()
}

// CurrentUser relit l'utilisateur posé par AuthRequired.
func CurrentUser(c *gin.Context) models.SessionUser {
	return models.SessionUser{
		ID:       c.GetString(CtxUserID),
		Email:    c.GetString(CtxEmail),
		Username: c.GetString(CtxUsername),
		Role:     c.GetString(CtxRole),
	}
}

func CurrentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// bearerToken lit l'en-tête Authorization, ou ?token= pour les websockets.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return strings.TrimSpace(c.Query("token"))
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
