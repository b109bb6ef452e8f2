package orders

import (
	"errors"
	"fmt"
	"strings"

	"fizzpan_back_end/internal/models"
)

var ErrInvalidStatus = errors.New("statut invalide")

// ValidStatuses est le vocabulaire canonique des statuts de commande.
var ValidStatuses = []string{
	models.OrderPending,
	models.OrderProcessing,
	models.OrderCompleted,
	models.OrderCancelled,
}

var statusAliases = map[string]string{
	"0": models.OrderPending,
	"1": models.OrderProcessing,
	"2": models.OrderProcessing,
	"3": models.OrderProcessing,
	"4": models.OrderProcessing,
	"5": models.OrderCompleted,

	models.OrderPending:    models.OrderPending,
	models.OrderProcessing: models.OrderProcessing,
	models.OrderCompleted:  models.OrderCompleted,
	models.OrderCancelled:  models.OrderCancelled,

	"confirmed":         models.OrderProcessing,
	"preparing":         models.OrderProcessing,
	"prepared_to_serve": models.OrderProcessing,
	"served":            models.OrderProcessing,
	"paid":              models.OrderCompleted,
	"delivered":         models.OrderCompleted,
	"canceled":          models.OrderCancelled,
}

// NormalizeStatus ramène les deux vocabulaires des écrans admin (codes numériques
// et libellés) aux quatre statuts canoniques.
func NormalizeStatus(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q (valeurs acceptées : %s)", ErrInvalidStatus, raw, strings.Join(ValidStatuses, ", "))
}
