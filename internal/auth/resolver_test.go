package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoleCache struct {
	mu    sync.Mutex
	roles map[string]cache.CachedRole
}

func newFakeRoleCache() *fakeRoleCache {
	return &fakeRoleCache{roles: make(map[string]cache.CachedRole)}
}

func (f *fakeRoleCache) GetRole(_ context.Context, id string) (cache.CachedRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return cache.CachedRole{}, cache.ErrMiss
	}
	return r, nil
}

func (f *fakeRoleCache) SetRole(_ context.Context, id string, r cache.CachedRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[id] = r
	return nil
}

func (f *fakeRoleCache) InvalidateRole(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, id)
	return nil
}

// blockingProfiles ignore le contexte et ne répond jamais.
type blockingProfiles struct{ release chan struct{} }

func (b blockingProfiles) GetProfile(context.Context, gocql.UUID) (models.Profile, error) {
	<-b.release
	return models.Profile{Role: models.RoleAdmin}, nil
}

func TestResolve_MetadataFirst(t *testing.T) {
	log, _ := test.NewNullLogger()
	roles := newFakeRoleCache()
	r := NewResolver(roles, nil, log)
	id := gocql.TimeUUID().String()

	u := r.Resolve(context.Background(), Session{UserID: id, Email: "dewi@example.com", Metadata: `{"role":"admin"}`})
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "dewi", u.Username, "partie locale de l'email")

	cached, err := roles.GetRole(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, cached.Role)
}

func TestResolve_CacheBeforeProfile(t *testing.T) {
	log, _ := test.NewNullLogger()
	roles := newFakeRoleCache()
	mem := store.NewMemory()
	id := gocql.TimeUUID()

	require.NoError(t, mem.CreateProfile(context.Background(), &models.Profile{ID: id, Username: "p", Role: models.RoleUser}))
	require.NoError(t, roles.SetRole(context.Background(), id.String(), cache.CachedRole{Role: models.RoleAdmin, Username: "cached"}))

	u := NewResolver(roles, mem, log).Resolve(context.Background(), Session{UserID: id.String(), Email: "x@y.z"})
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "cached", u.Username)
}

func TestResolve_ProfileLookupIsCached(t *testing.T) {
	log, _ := test.NewNullLogger()
	roles := newFakeRoleCache()
	mem := store.NewMemory()
	id := gocql.TimeUUID()
	require.NoError(t, mem.CreateProfile(context.Background(), &models.Profile{ID: id, Username: "chef", Role: models.RoleAdmin}))

	u := NewResolver(roles, mem, log).Resolve(context.Background(), Session{UserID: id.String(), Email: "c@d.e"})
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "chef", u.Username)

	cached, err := roles.GetRole(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, cache.CachedRole{Role: models.RoleAdmin, Username: "chef"}, cached)
}

func TestResolve_DefaultsToUser(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := NewResolver(newFakeRoleCache(), store.NewMemory(), log)

	u := r.Resolve(context.Background(), Session{UserID: gocql.TimeUUID().String(), Email: "anon@example.com"})
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, "anon", u.Username)

	u = r.Resolve(context.Background(), Session{UserID: "pas-un-uuid", Email: "x@y.z", Metadata: `{"role":"superuser"}`})
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestResolve_ProfileTimeout(t *testing.T) {
	log, _ := test.NewNullLogger()
	release := make(chan struct{})
	defer close(release)

	r := NewResolver(newFakeRoleCache(), blockingProfiles{release: release}, log)
	r.LookupTimeout = 50 * time.Millisecond

	start := time.Now()
	u := r.Resolve(context.Background(), Session{UserID: gocql.TimeUUID().String(), Email: "slow@example.com"})
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestForget(t *testing.T) {
	log, _ := test.NewNullLogger()
	roles := newFakeRoleCache()
	r := NewResolver(roles, nil, log)

	require.NoError(t, roles.SetRole(context.Background(), "u", cache.CachedRole{Role: "admin"}))
	r.Forget(context.Background(), "u")

	_, err := roles.GetRole(context.Background(), "u")
	assert.ErrorIs(t, err, cache.ErrMiss)
}
