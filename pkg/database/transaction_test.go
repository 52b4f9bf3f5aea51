package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransactionResultReturnsValue(t *testing.T) {
	got, err := WithTransactionResult(context.Background(), SequentialTxManager{}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithTransactionResultZeroesOnError(t *testing.T) {
	boom := errors.New("boom")
	got, err := WithTransactionResult(context.Background(), SequentialTxManager{}, func(ctx context.Context) (string, error) {
		return "partial", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}
