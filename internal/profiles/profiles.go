// Package profiles gère les utilisateurs côté admin et le profil de l'utilisateur connecté.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/imaging"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

const avatarFolder = "avatars"

var ErrInvalidProfile = errors.New("profil invalide")

// Accounts couvre la partie authentification utilisée ici.
type Accounts interface {
	CreateUser(ctx context.Context, in auth.NewUser) (models.SessionUser, error)
	SyncMetadata(ctx context.Context, id gocql.UUID, username, role string) error
	DeleteUser(ctx context.Context, id gocql.UUID) error
	RevokeSessions(ctx context.Context, id gocql.UUID) error
}

// Mirror reçoit une copie des utilisateurs créés (ancienne API REST).
type Mirror interface {
	CreateUser(ctx context.Context, email string, profile models.Profile) error
}

// Update est une mise à jour partielle ; Role est ignoré hors admin.
type Update struct {
	Username *string `json:"username"`
	Role     *string `json:"role"`
	Avatar   *string `json:"avatar"`
}

type Service struct {
	profiles store.ProfileStore
	carts    store.CartStore
	accounts Accounts
	images   services.ImageStore
	mirror   Mirror
	log      logrus.FieldLogger
}

func NewService(profiles store.ProfileStore, carts store.CartStore, accounts Accounts,
	images services.ImageStore, mirror Mirror, log logrus.FieldLogger) *Service {
	if images == nil {
		images = services.InlineImages{}
	}
	return &Service{
		profiles: profiles,
		carts:    carts,
		accounts: accounts,
		images:   images,
		mirror:   mirror,
		log:      log,
	}
}

func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	list, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture profils: %w", err)
	}
	if list == nil {
		list = []models.Profile{}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id gocql.UUID) (models.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// Create crée compte et profil, puis les recopie vers l'ancienne API si configurée.
func (s *Service) Create(ctx context.Context, in auth.NewUser) (models.Profile, error) {
	user, err := s.accounts.CreateUser(ctx, in)
	if err != nil {
		return models.Profile{}, err
	}
	id, err := gocql.ParseUUID(user.ID)
	if err != nil {
		return models.Profile{}, err
	}
	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}

	if s.mirror != nil {
		if err := s.mirror.CreateUser(ctx, user.Email, profile); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("⚠️ Copie vers l'ancienne API échouée")
		}
	}
	return profile, nil
}

// Update modifie le profil ; allowRole autorise le changement de rôle (admin).
// Nom ou rôle modifiés : user_metadata est réaligné et le rôle en cache oublié.
// Un changement de rôle révoque en plus les access tokens en cours.
func (s *Service) Update(ctx context.Context, id gocql.UUID, in Update, allowRole bool) (models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	before := p

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return models.Profile{}, fmt.Errorf("%w: nom d'utilisateur vide", ErrInvalidProfile)
		}
		p.Username = name
	}
	if in.Role != nil && allowRole {
		if !models.ValidRole(*in.Role) {
			return models.Profile{}, fmt.Errorf("%w: rôle inconnu", ErrInvalidProfile)
		}
		p.Role = *in.Role
	}
	if in.Avatar != nil {
		avatar, err := s.storeAvatar(ctx, *in.Avatar)
		if err != nil {
			return models.Profile{}, err
		}
		p.Avatar = avatar
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.profiles.UpdateProfile(ctx, &p); err != nil {
		return models.Profile{}, fmt.Errorf("mise à jour profil: %w", err)
	}

	if p.Username != before.Username || p.Role != before.Role {
		if err := s.accounts.SyncMetadata(ctx, p.ID, p.Username, p.Role); err != nil {
			s.log.WithError(err).WithField("user_id", id.String()).Error("❌ Synchronisation user_metadata échouée")
		}
	}
	if before.Avatar != "" && before.Avatar != p.Avatar {
		if err := s.images.Remove(ctx, before.Avatar); err != nil {
			s.log.WithError(err).Warn("⚠️ Suppression de l'ancien avatar échouée")
		}
	}
	if p.Role != before.Role {
		// les JWT déjà émis portent l'ancien rôle
		if err := s.accounts.RevokeSessions(ctx, p.ID); err != nil {
			return models.Profile{}, err
		}
		s.log.WithFields(logrus.Fields{"user_id": id.String(), "role": p.Role}).Info("🔐 Rôle modifié, sessions révoquées")
	}
	return p, nil
}

// Delete supprime profil, compte et panier.
func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	if err := s.profiles.DeleteProfile(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("suppression compte: %w", err)
	}
	if err := s.carts.ClearCart(ctx, id); err != nil {
		s.log.WithError(err).WithField("user_id", id.String()).Warn("⚠️ Panier non vidé après suppression")
	}
	s.log.WithField("user_id", id.String()).Info("🗑️ Utilisateur supprimé")
	return nil
}

func (s *Service) storeAvatar(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !imaging.IsDataURI(raw) {
		return raw, nil
	}
	res, err := imaging.CompressDataURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return s.images.Upload(ctx, avatarFolder, res.Data, res.ContentType)
}
