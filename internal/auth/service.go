package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("email ou mot de passe incorrect")
	ErrEmailTaken         = errors.New("cet email est déjà utilisé")
	ErrInvalidInput       = errors.New("données invalides")
	ErrTokenRevoked       = errors.New("token révoqué")
	ErrInvalidRefresh     = errors.New("refresh token invalide ou expiré")
)

const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// TokenStore couvre les usages Redis de l'authentification.
type TokenStore interface {
	RoleCache
	StoreRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeRefreshToken(ctx context.Context, token string) (string, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	RevokeUserTokens(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	TokensRevokedBefore(ctx context.Context, userID string) (time.Time, error)
}

type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult est renvoyé à la connexion et au rafraîchissement.
type LoginResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresAt    time.Time          `json:"expires_at"`
	User         models.SessionUser `json:"user"`
	Redirect     string             `json:"redirect"`
}

type Service struct {
	accounts   store.AccountStore
	profiles   store.ProfileStore
	tokens     *TokenIssuer
	store      TokenStore
	resolver   *Resolver
	refreshTTL time.Duration
	log        logrus.FieldLogger
}

func NewService(accounts store.AccountStore, profiles store.ProfileStore, tokens *TokenIssuer,
	ts TokenStore, refreshTTL time.Duration, log logrus.FieldLogger) *Service {
	return &Service{
		accounts:   accounts,
		profiles:   profiles,
		tokens:     tokens,
		store:      ts,
		resolver:   NewResolver(ts, profiles, log),
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// CreateUser crée le compte puis le profil associé. Le rôle vaut "user" par défaut.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (models.SessionUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	switch {
	case !emailRegex.MatchString(in.Email):
		return models.SessionUser{}, fmt.Errorf("%w: email invalide", ErrInvalidInput)
	case len(in.Password) < MinPasswordLength:
		return models.SessionUser{}, fmt.Errorf("%w: mot de passe trop court (%d caractères minimum)", ErrInvalidInput, MinPasswordLength)
	case !models.ValidRole(in.Role):
		return models.SessionUser{}, fmt.Errorf("%w: rôle inconnu", ErrInvalidInput)
	}
	if in.Username == "" {
		in.Username = emailLocalPart(in.Email)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.SessionUser{}, fmt.Errorf("hash mot de passe: %w", err)
	}

	now := time.Now().UTC()
	acc := models.Account{
		ID:           gocql.TimeUUID(),
		Email:        in.Email,
		PasswordHash: hash,
		Metadata:     EncodeMetadata(Metadata{Username: in.Username, Role: in.Role}),
		CreatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, &acc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.SessionUser{}, ErrEmailTaken
		}
		return models.SessionUser{}, fmt.Errorf("création compte: %w", err)
	}

	profile := models.Profile{
		ID:        acc.ID,
		Username:  in.Username,
		Role:      in.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.CreateProfile(ctx, &profile); err != nil {
		if delErr := s.accounts.DeleteAccount(ctx, acc.ID); delErr != nil {
			s.log.WithError(delErr).WithField("user_id", acc.ID.String()).Error("❌ Compte orphelin après échec du profil")
		}
		return models.SessionUser{}, fmt.Errorf("création profil: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": acc.ID.String(), "role": in.Role}).Info("👤 Nouvel utilisateur")
	return models.SessionUser{ID: acc.ID.String(), Email: acc.Email, Username: in.Username, Role: in.Role}, nil
}

// Register est l'inscription publique : toujours avec le rôle "user".
func (s *Service) Register(ctx context.Context, in NewUser) (models.SessionUser, error) {
	in.Role = models.RoleUser
	return s.CreateUser(ctx, in)
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lecture compte: %w", err)
	}

	ok, err := VerifyPassword(password, acc.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}
	return s.issue(ctx, acc)
}

func (s *Service) issue(ctx context.Context, acc models.Account) (LoginResult, error) {
	access, claims, err := s.tokens.Issue(acc)
	if err != nil {
		return LoginResult{}, err
	}

	refresh := uuid.NewString()
	if err := s.store.StoreRefreshToken(ctx, refresh, acc.ID.String(), s.refreshTTL); err != nil {
		return LoginResult{}, fmt.Errorf("stockage refresh token: %w", err)
	}

	user := s.resolver.Resolve(ctx, sessionFromClaims(claims))
	return LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         user,
		Redirect:     RedirectFor(user),
	}, nil
}

// Refresh échange un refresh token contre une nouvelle paire (métadonnées relues).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	userID, err := s.store.ConsumeRefreshToken(ctx, refreshToken)
	if errors.Is(err, cache.ErrMiss) {
		return LoginResult{}, ErrInvalidRefresh
	}
	if err != nil {
		return LoginResult{}, err
	}

	id, err := gocql.ParseUUID(userID)
	if err != nil {
		return LoginResult{}, ErrInvalidRefresh
	}
	acc, err := s.accounts.GetAccount(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidRefresh
	}
	if err != nil {
		return LoginResult{}, err
	}
	return s.issue(ctx, acc)
}

// Authenticate valide un token d'accès et résout l'utilisateur.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Claims, models.SessionUser, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return claims, models.SessionUser{}, err
	}

	revoked, err := s.store.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return claims, models.SessionUser{}, err
	}
	if revoked {
		return claims, models.SessionUser{}, ErrTokenRevoked
	}

	before, err := s.store.TokensRevokedBefore(ctx, claims.UserID)
	switch {
	case errors.Is(err, cache.ErrMiss):
	case err != nil:
		return claims, models.SessionUser{}, err
	case !claims.IssuedAtTime().After(before):
		return claims, models.SessionUser{}, ErrTokenRevoked
	}

	return claims, s.resolver.Resolve(ctx, sessionFromClaims(claims)), nil
}

// Logout révoque le token d'accès, supprime le refresh token et oublie le rôle.
func (s *Service) Logout(ctx context.Context, claims *Claims, refreshToken string) error {
	if err := s.store.BlacklistToken(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		return fmt.Errorf("révocation token: %w", err)
	}
	if refreshToken != "" {
		if err := s.store.DeleteRefreshToken(ctx, refreshToken); err != nil {
			s.log.WithError(err).Warn("⚠️ Suppression refresh token échouée")
		}
	}
	s.resolver.Forget(ctx, claims.UserID)
	return nil
}

// SyncMetadata aligne user_metadata sur le profil et invalide le rôle en cache.
func (s *Service) SyncMetadata(ctx context.Context, id gocql.UUID, username, role string) error {
	err := s.accounts.UpdateAccountMetadata(ctx, id, EncodeMetadata(Metadata{Username: username, Role: role}))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.resolver.Forget(ctx, id.String())
	return nil
}

// RevokeSessions invalide tous les access tokens déjà émis pour l'utilisateur.
// Les refresh tokens restent valides : ils relisent le compte à la rotation.
func (s *Service) RevokeSessions(ctx context.Context, id gocql.UUID) error {
	if err := s.store.RevokeUserTokens(ctx, id.String(), s.tokens.now(), s.tokens.ttl); err != nil {
		return fmt.Errorf("révocation des sessions: %w", err)
	}
	s.resolver.Forget(ctx, id.String())
	return nil
}

// DeleteUser supprime le compte et révoque ses sessions (le profil est géré par l'appelant).
func (s *Service) DeleteUser(ctx context.Context, id gocql.UUID) error {
	if err := s.accounts.DeleteAccount(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return s.RevokeSessions(ctx, id)
}

// RedirectFor renvoie l'espace vers lequel rediriger après connexion.
func RedirectFor(u models.SessionUser) string {
	if u.IsAdmin() {
		return "/admin"
	}
	return "/user"
}

func sessionFromClaims(c *Claims) Session {
	return Session{UserID: c.UserID, Email: c.Email, Metadata: string(c.UserMetadata)}
}
