package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnlflores/starter-ios-app-backend/internal/cache"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
)

type mapCache struct {
	entries map[int64]domain.Identity
	getErr  error
	sets    int
}

func (c *mapCache) Get(_ context.Context, id int64) (*domain.Identity, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &v, nil
}

func (c *mapCache) Set(_ context.Context, identity *domain.Identity, _ time.Duration) error {
	c.sets++
	c.entries[identity.ID] = *identity
	return nil
}

func (c *mapCache) Delete(_ context.Context, ids ...int64) error {
	for _, id := range ids {
		delete(c.entries, id)
	}
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestGetIdentityCacheAside(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "ada", "Ada", "Lovelace")
	c := &mapCache{entries: map[int64]domain.Identity{}}
	svc := NewIdentityService(repository.NewGormIdentityRepository(f.db), c, time.Minute)
	ctx := context.Background()

	got, err := svc.GetIdentity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, 1, c.sets)

	// Served from cache even after the row changes.
	require.NoError(t, f.db.Model(&domain.IdentityModel{}).Where("id = ?", 1).Update("username", "countess").Error)
	got, err = svc.GetIdentity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, 1, c.sets)
}

func TestGetIdentityCacheErrorFallsBackToDB(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "ada", "", "")
	c := &mapCache{entries: map[int64]domain.Identity{}, getErr: errors.New("redis down")}
	svc := NewIdentityService(repository.NewGormIdentityRepository(f.db), c, time.Minute)

	got, err := svc.GetIdentity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
}

func TestGetIdentityNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.idents.GetIdentity(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
