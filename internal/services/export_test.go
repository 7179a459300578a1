package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpskeeper/vpskeeper/internal/models"
)

func TestExportUserData(t *testing.T) {
	db := newTestDB(t)
	servers := NewServerService(db, newTestEncryptor(t), clockAt(t, "2026-03-01"))
	manuals := NewManualService(db)
	svc := NewExportService(servers, manuals)
	ctx := context.Background()

	in := validInput(100, "alpha")
	in.SecretType = models.SecretPassword
	in.SecretValue = "hunter2"
	in.Tags = []string{"prod"}
	_, err := servers.CreateServer(ctx, in)
	require.NoError(t, err)

	mIn := manualInput(100, "Setup")
	mIn.Tags = []string{"vpn"}
	_, err = manuals.CreateManual(ctx, mIn)
	require.NoError(t, err)

	_, err = servers.CreateServer(ctx, validInput(999, "foreign"))
	require.NoError(t, err)

	t.Run("secrets excluded by default", func(t *testing.T) {
		bundle, err := svc.ExportUserData(ctx, 100, false)
		require.NoError(t, err)
		require.Len(t, bundle.Servers, 1)
		require.Len(t, bundle.Manuals, 1)

		exported := bundle.Servers[0]
		assert.Equal(t, "alpha", exported.Name)
		assert.Equal(t, []string{"prod"}, exported.Tags)
		assert.Empty(t, exported.SecretEncrypted)
		assert.Equal(t, "password", exported.SecretType)
	})

	t.Run("ciphertext on request, never plaintext", func(t *testing.T) {
		bundle, err := svc.ExportUserData(ctx, 100, true)
		require.NoError(t, err)
		require.Len(t, bundle.Servers, 1)
		assert.NotEmpty(t, bundle.Servers[0].SecretEncrypted)

		data, err := bundle.JSON()
		require.NoError(t, err)
		assert.NotContains(t, string(data), "hunter2")
	})
}
