package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaUsers stocke comptes, profils et journal d'audit dans le keyspace utilisateurs.
type ScyllaUsers struct {
	session *gocql.Session
}

func NewScyllaUsers(session *gocql.Session) *ScyllaUsers {
	return &ScyllaUsers{session: session}
}

// =============================================
// PROFILS
// =============================================

const profileColumns = `id, username, role, avatar, created_at, updated_at`

func scanProfile(scan func(dest ...interface{}) error) (models.Profile, error) {
	var p models.Profile
	err := scan(&p.ID, &p.Username, &p.Role, &p.Avatar, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *ScyllaUsers) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	iter := s.session.Query(`SELECT ` + profileColumns + ` FROM profiles`).WithContext(ctx).Iter()

	var profiles []models.Profile
	for {
		p, ok := scanIter(iter, scanProfile)
		if !ok {
			break
		}
		profiles = append(profiles, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture profils: %w", err)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return newerFirst(profiles[i].CreatedAt, profiles[j].CreatedAt, profiles[i].ID, profiles[j].ID)
	})
	return profiles, nil
}

func (s *ScyllaUsers) GetProfile(ctx context.Context, id gocql.UUID) (models.Profile, error) {
	q := s.session.Query(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id).WithContext(ctx)
	p, err := scanProfile(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Profile{}, ErrNotFound
	}
	return p, err
}

func (s *ScyllaUsers) CreateProfile(ctx context.Context, p *models.Profile) error {
	applied, err := s.session.Query(`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		p.ID, p.Username, p.Role, p.Avatar, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrConflict
	}
	return nil
}

func (s *ScyllaUsers) UpdateProfile(ctx context.Context, p *models.Profile) error {
	applied, err := s.session.Query(`UPDATE profiles SET username = ?, role = ?, avatar = ?, updated_at = ? WHERE id = ? IF EXISTS`,
		p.Username, p.Role, p.Avatar, p.UpdatedAt, p.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaUsers) DeleteProfile(ctx context.Context, id gocql.UUID) error {
	applied, err := s.session.Query(`DELETE FROM profiles WHERE id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// =============================================
// COMPTES
// =============================================

// CreateAccount réserve d'abord l'email (LWT) pour garantir l'unicité.
func (s *ScyllaUsers) CreateAccount(ctx context.Context, a *models.Account) error {
	email := strings.ToLower(a.Email)

	applied, err := s.session.Query(`INSERT INTO accounts_by_email (email, id) VALUES (?, ?) IF NOT EXISTS`,
		email, a.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return ErrConflict
	}

	err = s.session.Query(`INSERT INTO accounts (id, email, password_hash, user_metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, email, a.PasswordHash, a.Metadata, a.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		// Libère l'email pour ne pas bloquer une nouvelle inscription
		_ = s.session.Query(`DELETE FROM accounts_by_email WHERE email = ?`, email).WithContext(ctx).Exec()
		return fmt.Errorf("création compte: %w", err)
	}
	return nil
}

func (s *ScyllaUsers) GetAccount(ctx context.Context, id gocql.UUID) (models.Account, error) {
	var a models.Account
	err := s.session.Query(`SELECT id, email, password_hash, user_metadata, created_at FROM accounts WHERE id = ?`, id).
		WithContext(ctx).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Metadata, &a.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Account{}, ErrNotFound
	}
	return a, err
}

func (s *ScyllaUsers) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var id gocql.UUID
	err := s.session.Query(`SELECT id FROM accounts_by_email WHERE email = ?`, strings.ToLower(email)).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *ScyllaUsers) UpdateAccountMetadata(ctx context.Context, id gocql.UUID, metadata string) error {
	applied, err := s.session.Query(`UPDATE accounts SET user_metadata = ? WHERE id = ? IF EXISTS`, metadata, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaUsers) DeleteAccount(ctx context.Context, id gocql.UUID) error {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`DELETE FROM accounts WHERE id = ?`, id)
	b.Query(`DELETE FROM accounts_by_email WHERE email = ?`, strings.ToLower(a.Email))
	return s.session.ExecuteBatch(b)
}

// =============================================
// AUDIT
// =============================================

// InsertAudit range les entrées par jour pour lister facilement l'activité récente.
func (s *ScyllaUsers) InsertAudit(ctx context.Context, e models.AuditLog) error {
	return s.session.Query(`INSERT INTO audit_logs (day, log_id, user_id, action, resource, resource_id, details, ip_address, success, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UTC().Format(AuditDayLayout), e.ID, e.UserID, e.Action, e.Resource, e.ResourceID,
		e.Details, e.IPAddress, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

func (s *ScyllaUsers) ListAudit(ctx context.Context, day time.Time, limit int) ([]models.AuditLog, error) {
	iter := s.session.Query(`SELECT log_id, user_id, action, resource, resource_id, details, ip_address, success, error_msg, created_at
		FROM audit_logs WHERE day = ? LIMIT ?`, day.UTC().Format(AuditDayLayout), limit).WithContext(ctx).Iter()

	var out []models.AuditLog
	var e models.AuditLog
	for iter.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.Details,
		&e.IPAddress, &e.Success, &e.ErrorMsg, &e.Timestamp) {
		out = append(out, e)
		e = models.AuditLog{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
