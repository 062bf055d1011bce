package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"spot-booking-backend/internal/apperrors"
	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/models"
	"spot-booking-backend/internal/repository"
	"spot-booking-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = models.Principal{UserID: "owner"}
	guest = models.Principal{UserID: "guest"}
	other = models.Principal{UserID: "other"}
)

func fixedClock(day string) Clock {
	d := mustDate(day)
	return func() time.Time { return d.Time().Add(12 * time.Hour) }
}

func mustDate(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func float(v float64) *float64 { return &v }

// newTestStore returns a memory store holding three users and one spot "s1" owned by "owner"
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, u := range []models.User{
		{ID: "owner", Email: "owner@x.io", Username: "owner", FirstName: "Olive", LastName: "Owner"},
		{ID: "guest", Email: "guest@x.io", Username: "guest", FirstName: "Gus", LastName: "Guest"},
		{ID: "other", Email: "other@x.io", Username: "other", FirstName: "Otto", LastName: "Other"},
	} {
		u := u
		require.NoError(t, store.Users.Create(ctx, &u))
	}
	require.NoError(t, store.Spots.Create(ctx, &models.Spot{
		ID: "s1", OwnerID: "owner", Address: "1 Main St", City: "Town", State: "ST", Country: "US",
		Lat: 10, Lng: 20, Name: "Cabin", Description: "Quiet", Price: 100,
	}))
	return store
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}

// mapCache is an in-process Cache that records deletions
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
