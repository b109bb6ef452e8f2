// Package audit enregistre de façon asynchrone les actions sensibles.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second

	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Entry décrit une action à tracer.
type Entry struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Details    interface{}
	IPAddress  string
	Err        error
}

type Logger struct {
	store store.AuditStore
	log   logrus.FieldLogger
	wg    sync.WaitGroup
}

func NewLogger(s store.AuditStore, log logrus.FieldLogger) *Logger {
	return &Logger{store: s, log: log}
}

// Record écrit l'entrée en arrière-plan ; un échec est seulement journalisé.
func (l *Logger) Record(e Entry) {
	if l == nil || l.store == nil {
		return
	}
	entry := build(e, time.Now().UTC())

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.store.InsertAudit(ctx, entry); err != nil {
			l.log.WithError(err).WithField("action", entry.Action).Error("❌ Erreur enregistrement log audit")
		}
	}()
}

// Wait attend la fin des écritures en cours (arrêt du serveur, tests).
func (l *Logger) Wait() {
	if l != nil {
		l.wg.Wait()
	}
}

// Filter restreint la lecture du journal ; les champs vides ne filtrent pas.
type Filter struct {
	Day      time.Time
	UserID   string
	Action   string
	Resource string
	Success  *bool
	Limit    int
}

// List lit le journal d'une journée puis applique les filtres en mémoire.
func (l *Logger) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Day.IsZero() {
		f.Day = time.Now().UTC()
	}

	entries, err := l.store.ListAudit(ctx, f.Day, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.AuditLog, 0, len(entries))
	for _, e := range entries {
		if !f.match(e) {
			continue
		}
		out = append(out, e)
		if len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (f Filter) match(e models.AuditLog) bool {
	switch {
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Resource != "" && e.Resource != f.Resource:
		return false
	case f.Success != nil && e.Success != *f.Success:
		return false
	}
	return true
}

func build(e Entry, now time.Time) models.AuditLog {
	entry := models.AuditLog{
		ID:         gocql.UUIDFromTime(now),
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IPAddress:  e.IPAddress,
		Success:    e.Err == nil,
		Timestamp:  now,
	}
	if e.Err != nil {
		entry.ErrorMsg = e.Err.Error()
	}
	if e.Details != nil {
		if s, ok := e.Details.(string); ok {
			entry.Details = s
		} else if data, err := json.Marshal(e.Details); err == nil {
			entry.Details = string(data)
		}
	}
	return entry
}
