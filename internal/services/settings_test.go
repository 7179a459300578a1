package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/models"
)

func TestSecretTTLDefaultFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, 45)
	ctx := context.Background()

	assert.Equal(t, 45, svc.GetSecretTTL(ctx))

	// A malformed stored value falls back too.
	require.NoError(t, db.Create(&models.AppSetting{Key: "secret_ttl_seconds", Value: "soon"}).Error)
	assert.Equal(t, 45, svc.GetSecretTTL(ctx))
}

func TestSecretTTLOutOfRangeFallsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, 45)
	ctx := context.Background()

	// A hand-edited row outside 10..300 is treated like a malformed one.
	for _, value := range []string{"5", "301", "-60"} {
		require.NoError(t, db.Save(&models.AppSetting{Key: "secret_ttl_seconds", Value: value}).Error)
		assert.Equal(t, 45, svc.GetSecretTTL(ctx), value)
	}
}

func TestSetSecretTTL(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, 45)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetSecretTTL(ctx, 9), ErrValidation)
	assert.ErrorIs(t, svc.SetSecretTTL(ctx, 301), ErrValidation)

	require.NoError(t, svc.SetSecretTTL(ctx, 60))
	assert.Equal(t, 60, svc.GetSecretTTL(ctx))

	// Overriding upserts the same row.
	require.NoError(t, svc.SetSecretTTL(ctx, 120))
	assert.Equal(t, 120, svc.GetSecretTTL(ctx))

	var count int64
	require.NoError(t, db.Model(&models.AppSetting{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
