package profiles

import (
	"context"
	"testing"
	"time"

	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	emails []string
}

func (f *fakeMirror) CreateUser(_ context.Context, email string, _ models.Profile) error {
	f.emails = append(f.emails, email)
	return nil
}

type fixture struct {
	svc    *Service
	auth   *auth.Service
	mem    *store.Memory
	cache  *cache.Cache
	mirror *fakeMirror
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log, _ := test.NewNullLogger()
	f := fixture{mem: store.NewMemory(), cache: cache.New(rdb), mirror: &fakeMirror{}}
	f.auth = auth.NewService(f.mem, f.mem, auth.NewTokenIssuer("secret", time.Hour), f.cache, 24*time.Hour, log)
	f.svc = NewService(f.mem, f.mem, f.auth, nil, f.mirror, log)
	return f
}

func TestCreateMirrorsUser(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), auth.NewUser{
		Email: "chef@fizzpan.fr", Password: "motdepasse", Username: "chef", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, []string{"chef@fizzpan.fr"}, f.mirror.emails)

	_, err = f.svc.Create(context.Background(), auth.NewUser{Email: "chef@fizzpan.fr", Password: "motdepasse"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestUpdateRoleSyncsMetadataAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, auth.NewUser{Email: "ana@fizzpan.fr", Password: "motdepasse", Username: "ana"})
	require.NoError(t, err)
	require.NoError(t, f.cache.SetRole(ctx, p.ID.String(), cache.CachedRole{Role: models.RoleUser, Username: "ana"}))

	role := models.RoleAdmin
	up, err := f.svc.Update(ctx, p.ID, Update{Role: &role}, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, up.Role)

	_, err = f.cache.GetRole(ctx, p.ID.String())
	assert.ErrorIs(t, err, cache.ErrMiss)

	acc, err := f.mem.GetAccount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, auth.ParseMetadata(acc.Metadata).Role)

	res, err := f.auth.Login(ctx, "ana@fizzpan.fr", "motdepasse")
	require.NoError(t, err)
	assert.Equal(t, "/admin", res.Redirect)
}

func TestUpdateIgnoresRoleWithoutPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, auth.NewUser{Email: "leo@fizzpan.fr", Password: "motdepasse"})
	require.NoError(t, err)

	role, name := models.RoleAdmin, "  leo  "
	up, err := f.svc.Update(ctx, p.ID, Update{Role: &role, Username: &name}, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, up.Role)
	assert.Equal(t, "leo", up.Username)

	bad := "superuser"
	_, err = f.svc.Update(ctx, p.ID, Update{Role: &bad}, true)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	empty := " "
	_, err = f.svc.Update(ctx, p.ID, Update{Username: &empty}, false)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestDeleteRemovesProfileAccountAndCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, auth.NewUser{Email: "zoe@fizzpan.fr", Password: "motdepasse"})
	require.NoError(t, err)
	item := models.CartItem{ID: gocql.TimeUUID(), UserID: p.ID, ProductID: gocql.TimeUUID(), Quantity: 1}
	require.NoError(t, f.mem.SaveCartItem(ctx, &item))

	require.NoError(t, f.svc.Delete(ctx, p.ID))

	_, err = f.mem.GetProfile(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.mem.GetAccount(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	items, err := f.mem.ListCartItems(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID), store.ErrNotFound)
}

func TestDemotionRevokesIssuedTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, auth.NewUser{Email: "yanis@fizzpan.fr", Password: "motdepasse", Username: "yanis", Role: models.RoleAdmin})
	require.NoError(t, err)
	res, err := f.auth.Login(ctx, "yanis@fizzpan.fr", "motdepasse")
	require.NoError(t, err)

	// renommage seul : la session continue
	name := "yanis b."
	_, err = f.svc.Update(ctx, p.ID, Update{Username: &name}, true)
	require.NoError(t, err)
	_, session, err := f.auth.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.True(t, session.IsAdmin())

	role := models.RoleUser
	_, err = f.svc.Update(ctx, p.ID, Update{Role: &role}, true)
	require.NoError(t, err)
	_, _, err = f.auth.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}
