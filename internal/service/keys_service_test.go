package service

import (
	"context"
	"testing"

	"github.com/maheshrc27/finityo/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiKeyService(t *testing.T) {
	ctx := context.Background()
	svc := NewApiKeyService(testsupport.NewApiKeyStore())

	key, err := svc.Create(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, key.ApiKey)

	userID, err := svc.GetUserID(ctx, key.ApiKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	_, err = svc.GetUserID(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 1; i < maxApiKeys; i++ {
		_, err := svc.Create(ctx, 1)
		require.NoError(t, err)
	}
	_, err = svc.Create(ctx, 1)
	assert.ErrorIs(t, err, ErrValidation)

	keys, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, keys, maxApiKeys)

	assert.ErrorIs(t, svc.RemoveAPIKey(ctx, 2, key.ID), ErrNotFound)
	require.NoError(t, svc.RemoveAPIKey(ctx, 1, key.ID))
	_, err = svc.GetUserID(ctx, key.ApiKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
