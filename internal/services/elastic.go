package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fizzpan_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/gocql/gocql"
)

// ErrSearchUnavailable : pas de moteur de recherche, l'appelant filtre en mémoire.
var ErrSearchUnavailable = errors.New("recherche indisponible")

type ProductSearch interface {
	Index(ctx context.Context, p models.Product) error
	Remove(ctx context.Context, id gocql.UUID) error
	// Search renvoie les IDs des produits pertinents, du plus au moins pertinent.
	Search(ctx context.Context, query string) ([]gocql.UUID, error)
}

type ElasticSearch struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticSearch(client *elasticsearch.Client, index string) *ElasticSearch {
	return &ElasticSearch{client: client, index: index}
}

type productDocument struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (e *ElasticSearch) Index(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(productDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("indexation %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indexation %s: %s", p.ID, res.String())
	}
	return nil
}

func (e *ElasticSearch) Remove(ctx context.Context, id gocql.UUID) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id.String(), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("suppression index %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("suppression index %s: %s", id, res.String())
	}
	return nil
}

func (e *ElasticSearch) Search(ctx context.Context, query string) ([]gocql.UUID, error) {
	var buf bytes.Buffer
	body := map[string]interface{}{
		"size": 50,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("recherche: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("recherche: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("décodage réponse recherche: %w", err)
	}

	ids := make([]gocql.UUID, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if id, err := gocql.ParseUUID(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// NoSearch est utilisé quand Elasticsearch n'est pas configuré.
type NoSearch struct{}

func (NoSearch) Index(context.Context, models.Product) error { return nil }
func (NoSearch) Remove(context.Context, gocql.UUID) error    { return nil }
func (NoSearch) Search(context.Context, string) ([]gocql.UUID, error) {
	return nil, ErrSearchUnavailable
}

// MatchProducts est la recherche de secours : nom ou description contenant la requête.
func MatchProducts(products []models.Product, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	var out []models.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
