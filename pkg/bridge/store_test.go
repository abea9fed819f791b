package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *BridgeRecord {
	return &BridgeRecord{
		ID:          id,
		Status:      StatusPending,
		SourceChain: "sepolia",
		Destination: DestinationWallet,
		Amount:      decimal.RequireFromString("1.5"),
		UserAddress: "0xabc123",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemStoreCreateGet(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	rec := testRecord("b1")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, StatusPending, got.Status)

	// store holds a copy, not the caller's pointer
	rec.Status = StatusFailed
	got, err = store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	assert.Error(t, store.Create(ctx, testRecord("b1")))
}

func TestMemStoreGetNotFound(t *testing.T) {
	store := NewMemStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreUpdate(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testRecord("b1")))

	got, err := store.Update(ctx, "b1", func(r *BridgeRecord) error {
		r.Status = StatusBurning
		r.SourceTxHash = "0xburn"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusBurning, got.Status)

	stored, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "0xburn", stored.SourceTxHash)
}

func TestMemStoreUpdateAborts(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testRecord("b1")))

	sentinel := errors.New("no thanks")
	_, err := store.Update(ctx, "b1", func(r *BridgeRecord) error {
		r.Status = StatusFailed
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// aborted update leaves the record untouched
	got, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	_, err = store.Update(ctx, "missing", func(*BridgeRecord) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreListOrdered(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"b3", "b1", "b2"} {
		rec := testRecord(id)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, rec))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "b3", records[0].ID)
	assert.Equal(t, "b1", records[1].ID)
	assert.Equal(t, "b2", records[2].ID)
}
