package service

import (
	"context"
	"os"
	"testing"
	"trade_journal/internal/models"
	"trade_journal/internal/testutil/memstore"
	"trade_journal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

func TestCreateAndGet(t *testing.T) {
	store := memstore.New()
	d := NewDirectory(store, store)
	ctx := context.Background()

	u, err := d.Create(ctx, "  trader ")
	require.NoError(t, err)
	assert.Equal(t, "trader", u.Username)

	got, err := d.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = d.Create(ctx, "trader")
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = d.Create(ctx, " ")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = d.Get(ctx, 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
