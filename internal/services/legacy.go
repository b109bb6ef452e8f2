package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"fizzpan_back_end/internal/models"
)

var ErrLegacyUnauthorized = errors.New("API historique: jeton refusé")

// LegacyClient reproduit certaines écritures admin vers l'ancienne API REST.
type LegacyClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewLegacyClient(baseURL, token string, timeout time.Duration) *LegacyClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LegacyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *LegacyClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *LegacyClient) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type legacyProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
}

type legacyUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (c *LegacyClient) CreateProduct(ctx context.Context, p models.Product) error {
	return c.post(ctx, "/products", legacyProduct{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
	})
}

func (c *LegacyClient) CreateUser(ctx context.Context, email string, profile models.Profile) error {
	return c.post(ctx, "/users", legacyUser{
		ID:       profile.ID.String(),
		Email:    email,
		Username: profile.Username,
		Role:     profile.Role,
	})
}

func (c *LegacyClient) post(ctx context.Context, path string, body interface{}) error {
	token := c.Token()
	if token == "" {
		return ErrLegacyUnauthorized
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API historique: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return ErrLegacyUnauthorized
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API historique: statut %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
