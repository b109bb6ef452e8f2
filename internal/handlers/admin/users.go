package admin

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/profiles"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type UserService interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id gocql.UUID) (models.Profile, error)
	Create(ctx context.Context, in auth.NewUser) (models.Profile, error)
	Update(ctx context.Context, id gocql.UUID, in profiles.Update, allowRole bool) (models.Profile, error)
	Delete(ctx context.Context, id gocql.UUID) error
}

type UsersHandler struct {
	svc UserService
	log logrus.FieldLogger
}

func NewUsersHandler(svc UserService, log logrus.FieldLogger) *UsersHandler {
	return &UsersHandler{svc: svc, log: log}
}

// GET /api/admin/users
func (h *UsersHandler) List(c *gin.Context) {
	listPage(c, h.log, h.svc.List)
}

// GET /api/admin/users/:id
func (h *UsersHandler) Get(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
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

// POST /api/admin/users : compte + profil, rôle au choix.
func (h *UsersHandler) Create(c *gin.Context) {
	var in auth.NewUser
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /api/admin/users/:id
func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var in profiles.Update
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in, true)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/admin/users/:id?confirm=true
func (h *UsersHandler) Delete(c *gin.Context) {
	deleteFromPage(c, h.log, h.svc.List, h.svc.Delete,
		func(p models.Profile) gocql.UUID { return p.ID },
		"Utilisateur supprimé")
}
