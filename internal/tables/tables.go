// Package tables gère les tables du restaurant, leurs clients et leur QR code.
package tables

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

const imageFolder = "tables"

var (
	ErrInvalidTable = errors.New("table invalide")
	ErrTableTaken   = errors.New("ce numéro de table existe déjà")
)

type Input struct {
	TableNumber   int    `json:"table_number"`
	NumberOfSeats int    `json:"number_of_seats"`
	Image         string `json:"image"`
}

type Service struct {
	tables   store.TableStore
	profiles store.ProfileStore
	images   services.ImageStore
	baseURL  string
	log      logrus.FieldLogger
}

func NewService(tables store.TableStore, profiles store.ProfileStore, images services.ImageStore,
	baseURL string, log logrus.FieldLogger) *Service {
	if images == nil {
		images = services.InlineImages{}
	}
	return &Service{tables: tables, profiles: profiles, images: images, baseURL: baseURL, log: log}
}

func (s *Service) List(ctx context.Context) ([]models.Table, error) {
	list, err := s.tables.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture tables: %w", err)
	}
	if list == nil {
		list = []models.Table{}
	}
	for i := range list {
		if err := s.attachUsers(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id gocql.UUID) (models.Table, error) {
	t, err := s.tables.GetTable(ctx, id)
	if err != nil {
		return models.Table{}, err
	}
	return t, s.attachUsers(ctx, &t)
}

func (s *Service) Create(ctx context.Context, in Input) (models.Table, error) {
	if in.TableNumber <= 0 {
		return models.Table{}, fmt.Errorf("%w: numéro de table obligatoire", ErrInvalidTable)
	}
	if in.NumberOfSeats <= 0 {
		return models.Table{}, fmt.Errorf("%w: nombre de places obligatoire", ErrInvalidTable)
	}

	t := models.Table{
		ID:            gocql.TimeUUID(),
		TableNumber:   in.TableNumber,
		NumberOfSeats: in.NumberOfSeats,
		CreatedAt:     time.Now().UTC(),
	}
	if img := strings.TrimSpace(in.Image); img != "" {
		url, err := s.storeImage(ctx, img)
		if err != nil {
			return models.Table{}, err
		}
		t.Image = url
	}

	if err := s.tables.CreateTable(ctx, &t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Table{}, ErrTableTaken
		}
		return models.Table{}, fmt.Errorf("création table: %w", err)
	}
	s.log.WithField("table_number", t.TableNumber).Info("🪑 Table créée")
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	t, err := s.tables.GetTable(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tables.DeleteTable(ctx, id); err != nil {
		return err
	}
	if t.Image != "" {
		if err := s.images.Remove(ctx, t.Image); err != nil {
			s.log.WithError(err).Warn("⚠️ Suppression de l'image de table échouée")
		}
	}
	return nil
}

// Assign rattache des utilisateurs existants à une table.
func (s *Service) Assign(ctx context.Context, tableID gocql.UUID, userIDs []gocql.UUID) (models.Table, error) {
	if len(userIDs) == 0 {
		return models.Table{}, fmt.Errorf("%w: aucun utilisateur", ErrInvalidTable)
	}
	if _, err := s.tables.GetTable(ctx, tableID); err != nil {
		return models.Table{}, err
	}

	now := time.Now().UTC()
	for _, uid := range userIDs {
		if _, err := s.profiles.GetProfile(ctx, uid); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.Table{}, fmt.Errorf("%w: utilisateur %s inconnu", ErrInvalidTable, uid)
			}
			return models.Table{}, err
		}
		if err := s.tables.AssignUser(ctx, models.TableAssignment{TableID: tableID, UserID: uid, AssignedAt: now}); err != nil {
			return models.Table{}, fmt.Errorf("affectation table: %w", err)
		}
	}
	return s.Get(ctx, tableID)
}

// QRCode renvoie le PNG du lien de commande de la table.
func (s *Service) QRCode(ctx context.Context, id gocql.UUID) ([]byte, error) {
	t, err := s.tables.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return services.TableQRCode(s.baseURL, t.TableNumber)
}

func (s *Service) attachUsers(ctx context.Context, t *models.Table) error {
	assignments, err := s.tables.ListAssignments(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("lecture affectations: %w", err)
	}
	t.Users = nil
	for _, a := range assignments {
		name := a.UserID.String()
		if p, err := s.profiles.GetProfile(ctx, a.UserID); err == nil {
			name = p.Username
		}
		t.Users = append(t.Users, name)
	}
	return nil
}

func (s *Service) storeImage(ctx context.Context, raw string) (string, error) {
	if !imaging.IsDataURI(raw) {
		return raw, nil
	}
	res, err := imaging.CompressDataURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return s.images.Upload(ctx, imageFolder, res.Data, res.ContentType)
}
