package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia/backend/internal/store"
)

func TestLabelService_GenerateBadgeLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("token decodes to the badge state", func(t *testing.T) {
		ms := store.NewMemoryStore()
		seedRow(t, ms, 4, "10/03/2026", "12345", "54321", "Judicial", "", "")

		// Without Redis the label is still generated, just not verifiable.
		svc := NewLabelService(ms, nil, time.Hour, 256)

		token, image, err := svc.GenerateBadgeLabel(ctx, "12345")
		require.NoError(t, err)
		assert.NotEmpty(t, image)

		raw, err := base64.URLEncoding.DecodeString(token)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "12345", payload["numeroLegajo"])
		assert.Equal(t, "EN SALIDA", payload["estado"])
		assert.NotEmpty(t, payload["nonce"])
	})

	t.Run("rejects malformed badge numbers", func(t *testing.T) {
		svc := NewLabelService(store.NewMemoryStore(), nil, time.Hour, 256)

		_, _, err := svc.GenerateBadgeLabel(ctx, "12a45")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestLabelService_VerifyBadgeLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a stored label", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		svc := NewLabelService(store.NewMemoryStore(), client, time.Hour, 256)

		payload := `{"numeroLegajo":"12345","estado":"EN ARCHIVO"}`
		token := base64.URLEncoding.EncodeToString([]byte(payload))
		mock.ExpectGet("label:" + token).SetVal(payload)

		result, err := svc.VerifyBadgeLabel(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "12345", result["numeroLegajo"])
		assert.Equal(t, "EN ARCHIVO", result["estado"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired label is rejected", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		svc := NewLabelService(store.NewMemoryStore(), client, time.Hour, 256)

		mock.ExpectGet("label:expired").RedisNil()

		_, err := svc.VerifyBadgeLabel(ctx, "expired")
		assert.ErrorContains(t, err, "inválida o expirada")
	})

	t.Run("unavailable without redis", func(t *testing.T) {
		svc := NewLabelService(store.NewMemoryStore(), nil, time.Hour, 256)
		_, err := svc.VerifyBadgeLabel(ctx, "whatever")
		assert.Error(t, err)
	})
}
