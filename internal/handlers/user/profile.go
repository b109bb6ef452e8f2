package user

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/profiles"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type ProfileService interface {
	Get(ctx context.Context, id gocql.UUID) (models.Profile, error)
	Update(ctx context.Context, id gocql.UUID, in profiles.Update, allowRole bool) (models.Profile, error)
}

type ProfileHandler struct {
	svc ProfileService
	log logrus.FieldLogger
}

func NewProfileHandler(svc ProfileService, log logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := sessionUserID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /api/profile : nom et avatar ; le rôle n'est modifiable que par un admin.
func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := sessionUserID(c)
	if !ok {
		return
	}

	var in profiles.Update
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, in, false)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "profile": p})
}
