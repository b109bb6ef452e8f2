// Package pagination découpe en mémoire des listes déjà entièrement chargées.
package pagination

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page est une tranche de liste avec ses métadonnées.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

// Normalize borne page (0-indexé) et taille de page.
func Normalize(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Paginate renvoie la page demandée de items (slice page*size).
// Une page au-delà de la fin renvoie une liste vide.
func Paginate[T any](items []T, page, size int) Page[T] {
	page, size = Normalize(page, size)
	total := len(items)

	// page > total/size avant la multiplication : pas de débordement d'int.
	start := total
	if page <= total/size {
		start = min(page*size, total)
	}
	end := min(start+size, total)

	out := make([]T, end-start)
	copy(out, items[start:end])

	return Page[T]{
		Items:    out,
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    (total + size - 1) / size,
	}
}

// Remove retire de items les éléments pour lesquels match renvoie true,
// sans relire la source (filtrage local après suppression).
func Remove[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}

// AfterDelete filtre la liste puis recalcule la page ; si la page courante
// devient vide (dernier élément supprimé), on recule d'une page.
func AfterDelete[T any](items []T, match func(T) bool, page, size int) Page[T] {
	remaining := Remove(items, match)
	p := Paginate(remaining, page, size)
	if len(p.Items) == 0 && p.Page > 0 && p.Total > 0 {
		return Paginate(remaining, p.Pages-1, size)
	}
	return p
}
