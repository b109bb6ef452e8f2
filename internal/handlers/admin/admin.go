// Package admin contient les handlers du tableau de bord d'administration.
package admin

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/pagination"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// listPage charge la liste complète puis renvoie la page demandée.
func listPage[T any](c *gin.Context, log logrus.FieldLogger, list func(context.Context) ([]T, error)) {
	items, err := list(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err, log)
		return
	}
	page, size := handlers.PageParams(c)
	c.JSON(http.StatusOK, pagination.Paginate(items, page, size))
}

// deleteFromPage supprime après confirmation puis renvoie la page recalculée
// à partir de la liste lue avant suppression, sans relecture.
func deleteFromPage[T any](c *gin.Context, log logrus.FieldLogger,
	list func(context.Context) ([]T, error),
	del func(context.Context, gocql.UUID) error,
	idOf func(T) gocql.UUID,
	message string) {
	if !handlers.Confirmed(c) {
		handlers.RespondError(c, handlers.ErrConfirmationRequired, log)
		return
	}
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	items, err := list(ctx)
	if err != nil {
		handlers.RespondError(c, err, log)
		return
	}
	if err := del(ctx, id); err != nil {
		handlers.RespondError(c, err, log)
		return
	}

	page, size := handlers.PageParams(c)
	p := pagination.AfterDelete(items, func(it T) bool { return idOf(it) == id }, page, size)
	c.JSON(http.StatusOK, gin.H{"message": message, "page": p})
}
