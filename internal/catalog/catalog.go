// Package catalog gère les produits : lecture publique (cache, recherche) et CRUD admin.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fizzpan_back_end/internal/imaging"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

const imageFolder = "products"

var ErrInvalidProduct = errors.New("produit invalide")

type ProductCache interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	SetProducts(ctx context.Context, products []models.Product) error
	InvalidateProducts(ctx context.Context) error
}

// Mirror reçoit une copie des produits créés (ancienne API REST).
type Mirror interface {
	CreateProduct(ctx context.Context, p models.Product) error
}

type Service struct {
	products store.ProductStore
	cache    ProductCache
	search   services.ProductSearch
	images   services.ImageStore
	mirror   Mirror
	log      logrus.FieldLogger
}

type Options struct {
	Cache  ProductCache
	Search services.ProductSearch
	Images services.ImageStore
	Mirror Mirror
}

func NewService(products store.ProductStore, opts Options, log logrus.FieldLogger) *Service {
	s := &Service{
		products: products,
		cache:    opts.Cache,
		search:   opts.Search,
		images:   opts.Images,
		mirror:   opts.Mirror,
		log:      log,
	}
	if s.search == nil {
		s.search = services.NoSearch{}
	}
	if s.images == nil {
		s.images = services.InlineImages{}
	}
	return s
}

// List renvoie tout le catalogue, depuis le cache Redis si possible.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetProducts(ctx); err == nil {
			return cached, nil
		}
	}

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	if s.cache != nil {
		if err := s.cache.SetProducts(ctx, products); err != nil {
			s.log.WithError(err).Warn("⚠️ Mise en cache des produits échouée")
		}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id gocql.UUID) (models.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// Search interroge Elasticsearch ; sans moteur disponible on filtre le catalogue en mémoire.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	ids, err := s.search.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, services.ErrSearchUnavailable) {
			s.log.WithError(err).Warn("⚠️ Recherche Elasticsearch échouée, repli en mémoire")
		}
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return services.MatchProducts(all, query), nil
	}

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.products.GetProduct(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return models.Product{}, fmt.Errorf("%w: le nom est obligatoire", ErrInvalidProduct)
	}
	if in.Price == nil {
		return models.Product{}, fmt.Errorf("%w: le prix est obligatoire", ErrInvalidProduct)
	}

	now := time.Now().UTC()
	p := models.Product{ID: gocql.TimeUUID(), CreatedAt: now, UpdatedAt: now}
	if err := s.apply(ctx, &p, in); err != nil {
		return models.Product{}, err
	}

	if err := s.products.CreateProduct(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("création produit: %w", err)
	}
	s.afterWrite(ctx, p)

	if s.mirror != nil {
		if err := s.mirror.CreateProduct(ctx, p); err != nil {
			s.log.WithError(err).WithField("product_id", p.ID.String()).Warn("⚠️ Copie vers l'ancienne API échouée")
		}
	}

	s.log.WithFields(logrus.Fields{"product_id": p.ID.String(), "name": p.Name}).Info("🍕 Produit créé")
	return p, nil
}

// Update applique une mise à jour partielle (champs absents inchangés).
func (s *Service) Update(ctx context.Context, id gocql.UUID, in models.ProductInput) (models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return models.Product{}, fmt.Errorf("%w: le nom est obligatoire", ErrInvalidProduct)
	}

	oldImage := p.Image
	if err := s.apply(ctx, &p, in); err != nil {
		return models.Product{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.products.UpdateProduct(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("mise à jour produit: %w", err)
	}
	if oldImage != "" && oldImage != p.Image {
		s.removeImage(ctx, oldImage)
	}
	s.afterWrite(ctx, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if err := s.search.Remove(ctx, id); err != nil {
		s.log.WithError(err).Warn("⚠️ Suppression de l'index échouée")
	}
	if p.Image != "" {
		s.removeImage(ctx, p.Image)
	}
	s.invalidate(ctx)

	s.log.WithField("product_id", id.String()).Info("🗑️ Produit supprimé")
	return nil
}

// apply copie les champs fournis et remplace une image inline par son URL stockée.
func (s *Service) apply(ctx context.Context, p *models.Product, in models.ProductInput) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return fmt.Errorf("%w: le prix doit être positif", ErrInvalidProduct)
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return fmt.Errorf("%w: le stock doit être positif ou nul", ErrInvalidProduct)
		}
		p.Stock = *in.Stock
	}
	if in.Image != nil {
		img, err := s.storeImage(ctx, *in.Image)
		if err != nil {
			return err
		}
		p.Image = img
	}
	return nil
}

func (s *Service) storeImage(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !imaging.IsDataURI(raw) {
		return raw, nil
	}

	res, err := imaging.CompressDataURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	url, err := s.images.Upload(ctx, imageFolder, res.Data, res.ContentType)
	if err != nil {
		return "", fmt.Errorf("stockage image: %w", err)
	}
	s.log.WithFields(logrus.Fields{"bytes": len(res.Data), "width": res.Width, "height": res.Height}).
		Debug("🖼️ Image compressée")
	return url, nil
}

func (s *Service) removeImage(ctx context.Context, url string) {
	if err := s.images.Remove(ctx, url); err != nil {
		s.log.WithError(err).Warn("⚠️ Suppression de l'ancienne image échouée")
	}
}

func (s *Service) afterWrite(ctx context.Context, p models.Product) {
	if err := s.search.Index(ctx, p); err != nil {
		s.log.WithError(err).WithField("product_id", p.ID.String()).Warn("⚠️ Indexation Elasticsearch échouée")
	}
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.log.WithError(err).Warn("⚠️ Invalidation du cache produits échouée")
	}
}
