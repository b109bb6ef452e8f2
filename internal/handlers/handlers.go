// Package handlers regroupe les utilitaires communs aux handlers HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/cart"
	"fizzpan_back_end/internal/catalog"
	"fizzpan_back_end/internal/checkout"
	"fizzpan_back_end/internal/orders"
	"fizzpan_back_end/internal/profiles"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"
	"fizzpan_back_end/internal/tables"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrConfirmationRequired = errors.New("confirmation requise")

// badRequest liste les erreurs de validation renvoyées telles quelles au client.
var badRequest = []error{
	auth.ErrInvalidInput,
	cart.ErrInvalidQuantity,
	cart.ErrProductNotFound,
	catalog.ErrInvalidProduct,
	profiles.ErrInvalidProfile,
	tables.ErrInvalidTable,
	orders.ErrInvalidStatus,
	checkout.ErrEmptyCart,
	checkout.ErrInvalidContact,
	checkout.ErrMissingContactInfo,
	services.ErrPaymentsDisabled,
	ErrConfirmationRequired,
}

// StatusOf traduit une erreur métier en code HTTP.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, tables.ErrTableTaken), errors.Is(err, checkout.ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidRefresh),
		errors.Is(err, auth.ErrTokenRevoked), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, checkout.ErrPayment):
		return http.StatusBadGateway
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// RespondError écrit {"error": ...} ; les erreurs 5xx sont journalisées et masquées.
func RespondError(c *gin.Context, err error, log logrus.FieldLogger) {
	status := StatusOf(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("❌ Erreur serveur")
		msg := "Erreur serveur"
		if status == http.StatusBadGateway {
			msg = err.Error()
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if status == http.StatusNotFound && errors.Is(err, store.ErrNotFound) {
		c.JSON(status, gin.H{"error": "Ressource introuvable"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ParseUUIDParam lit un identifiant de route ; écrit 400 et renvoie false s'il est invalide.
func ParseUUIDParam(c *gin.Context, name string) (gocql.UUID, bool) {
	id, err := ParseUUID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return gocql.UUID{}, false
	}
	return id, true
}

func ParseUUID(raw string) (gocql.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return gocql.UUID{}, err
	}
	return gocql.UUID(id), nil
}

// PageParams lit ?page (0-indexé) et ?page_size ; les valeurs illisibles prennent le défaut.
func PageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	return page, size
}

// Confirmed exige ?confirm=true avant une suppression.
func Confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}
