package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"fizzpan_back_end/internal/store"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesEntry(t *testing.T) {
	mem := store.NewMemory()
	log, _ := test.NewNullLogger()
	l := NewLogger(mem, log)

	l.Record(Entry{
		UserID:     "u1",
		Action:     "delete",
		Resource:   "product",
		ResourceID: "p1",
		Details:    map[string]int{"stock": 3},
		IPAddress:  "10.0.0.1",
	})
	l.Record(Entry{UserID: "u1", Action: "checkout", Resource: "order", Err: errors.New("panier vide")})
	l.Wait()

	entries := mem.AuditEntries()
	require.Len(t, entries, 2)

	byAction := map[string]int{}
	for i, e := range entries {
		byAction[e.Action] = i
	}
	del := entries[byAction["delete"]]
	assert.True(t, del.Success)
	assert.JSONEq(t, `{"stock":3}`, del.Details)
	assert.Equal(t, "10.0.0.1", del.IPAddress)

	failed := entries[byAction["checkout"]]
	assert.False(t, failed.Success)
	assert.Equal(t, "panier vide", failed.ErrorMsg)
}

func TestRecordOnNilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Record(Entry{Action: "noop"})
		l.Wait()
	})
}

func TestListFiltersByDayAndFields(t *testing.T) {
	mem := store.NewMemory()
	log, _ := test.NewNullLogger()
	l := NewLogger(mem, log)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, mem.InsertAudit(ctx, build(Entry{UserID: "u1", Action: "post", Resource: "products"}, now.Add(-48*time.Hour))))
	require.NoError(t, mem.InsertAudit(ctx, build(Entry{UserID: "u1", Action: "post", Resource: "products"}, now)))
	require.NoError(t, mem.InsertAudit(ctx, build(Entry{UserID: "u2", Action: "delete", Resource: "users", Err: errors.New("x")}, now)))

	all, err := l.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed := false
	only, err := l.List(ctx, Filter{Success: &failed})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "u2", only[0].UserID)

	old, err := l.List(ctx, Filter{Day: now.Add(-48 * time.Hour), Resource: "products"})
	require.NoError(t, err)
	assert.Len(t, old, 1)

	limited, err := l.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
