package auth

import (
	"context"
	"errors"
	"time"

	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// ProfileLookupTimeout borne la lecture du profil pendant la résolution du rôle.
const ProfileLookupTimeout = 5 * time.Second

type RoleCache interface {
	GetRole(ctx context.Context, userID string) (cache.CachedRole, error)
	SetRole(ctx context.Context, userID string, r cache.CachedRole) error
	InvalidateRole(ctx context.Context, userID string) error
}

type ProfileLookup interface {
	GetProfile(ctx context.Context, id gocql.UUID) (models.Profile, error)
}

// Session est l'identité brute extraite d'un token, avant résolution du rôle.
type Session struct {
	UserID   string
	Email    string
	Metadata string
}

// Resolver détermine rôle et nom d'utilisateur d'une session.
// Ordre : user_metadata, cache Redis, profil (timeout), puis "user".
type Resolver struct {
	cache         RoleCache
	profiles      ProfileLookup
	log           logrus.FieldLogger
	LookupTimeout time.Duration
}

func NewResolver(roles RoleCache, profiles ProfileLookup, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		cache:         roles,
		profiles:      profiles,
		log:           log,
		LookupTimeout: ProfileLookupTimeout,
	}
}

func (r *Resolver) Resolve(ctx context.Context, s Session) models.SessionUser {
	user := models.SessionUser{ID: s.UserID, Email: s.Email, Role: models.RoleUser}
	fallbackName := emailLocalPart(s.Email)

	// 1. user_metadata
	md := ParseMetadata(s.Metadata)
	if models.ValidRole(md.Role) {
		user.Role = md.Role
		user.Username = firstNonEmpty(md.Username, fallbackName)
		r.remember(ctx, user)
		return user
	}

	// 2. cache
	if r.cache != nil {
		cached, err := r.cache.GetRole(ctx, s.UserID)
		if err == nil && models.ValidRole(cached.Role) {
			user.Role = cached.Role
			user.Username = firstNonEmpty(cached.Username, md.Username, fallbackName)
			return user
		}
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			r.log.WithError(err).Warn("⚠️ Cache rôle indisponible")
		}
	}

	// 3. profil, borné par LookupTimeout
	if profile, ok := r.lookupProfile(ctx, s.UserID); ok {
		if models.ValidRole(profile.Role) {
			user.Role = profile.Role
		}
		user.Username = firstNonEmpty(profile.Username, md.Username, fallbackName)
		r.remember(ctx, user)
		return user
	}

	// 4. défaut
	user.Username = firstNonEmpty(md.Username, fallbackName)
	return user
}

func (r *Resolver) lookupProfile(ctx context.Context, userID string) (models.Profile, bool) {
	if r.profiles == nil {
		return models.Profile{}, false
	}
	id, err := gocql.ParseUUID(userID)
	if err != nil {
		return models.Profile{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.LookupTimeout)
	defer cancel()

	type result struct {
		profile models.Profile
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := r.profiles.GetProfile(ctx, id)
		ch <- result{p, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			r.log.WithError(res.err).WithField("user_id", userID).Debug("Profil introuvable pour la résolution du rôle")
			return models.Profile{}, false
		}
		return res.profile, true
	case <-ctx.Done():
		r.log.WithField("user_id", userID).Warn("⏱️ Lecture du profil trop lente, rôle par défaut")
		return models.Profile{}, false
	}
}

func (r *Resolver) remember(ctx context.Context, u models.SessionUser) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetRole(ctx, u.ID, cache.CachedRole{Role: u.Role, Username: u.Username}); err != nil {
		r.log.WithError(err).Warn("⚠️ Impossible de mettre le rôle en cache")
	}
}

// Forget efface le rôle mémorisé d'un utilisateur.
func (r *Resolver) Forget(ctx context.Context, userID string) {
	if r.cache == nil || userID == "" {
		return
	}
	if err := r.cache.InvalidateRole(ctx, userID); err != nil {
		r.log.WithError(err).Warn("⚠️ Impossible d'invalider le cache rôle")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
