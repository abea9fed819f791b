package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
	"github.com/stablerail/cctp-orchestrator/pkg/pgutil"
	mghelper "github.com/stablerail/cctp-orchestrator/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	require.NoError(t, mghelper.CreateSchema(ctx, db, &BridgeDao{}))
	require.NoError(t, mghelper.CreateModelIndexes(ctx, db, &BridgeDao{}, "status", "source_tx_hash", "created_at"))
	pgutil.AssertTableExists(t, db, "bridges")
	pgutil.AssertIndexExists(t, db, "idx_bridges_status")

	return NewStore(db)
}

func pgTestRecord(id string) *bridge.BridgeRecord {
	return &bridge.BridgeRecord{
		ID:          id,
		Status:      bridge.StatusPending,
		SourceChain: "sepolia",
		Destination: bridge.DestinationVault,
		Amount:      decimal.RequireFromString("10.5"),
		UserAddress: "0xabc123",
		EVMAddress:  "0x1111111111111111111111111111111111111111",
		Strategy:    &bridge.Strategy{Protocol: "echelon", APY: 7.2, Allocation: 100},
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestStoreCreateGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := pgTestRecord("b1")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, bridge.StatusPending, got.Status)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("10.5")))
	require.NotNil(t, got.Strategy)
	assert.Equal(t, "echelon", got.Strategy.Protocol)
	assert.Nil(t, got.CompletedAt)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, bridge.ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pgTestRecord("b1")))

	now := time.Now().UTC().Truncate(time.Microsecond)
	got, err := store.Update(ctx, "b1", func(r *bridge.BridgeRecord) error {
		r.Status = bridge.StatusCompleted
		r.MessageBytes = "0xdeadbeef"
		r.Attestation = "0xAA"
		r.MintIssued = true
		r.CompletedAt = &now
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusCompleted, got.Status)

	stored, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", stored.MessageBytes)
	assert.Equal(t, "0xAA", stored.Attestation)
	assert.True(t, stored.MintIssued)
	require.NotNil(t, stored.CompletedAt)
}

func TestStoreUpdateAbortRollsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pgTestRecord("b1")))

	sentinel := errors.New("claim rejected")
	_, err := store.Update(ctx, "b1", func(r *bridge.BridgeRecord) error {
		r.Status = bridge.StatusFailed
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	got, err := store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusPending, got.Status)

	_, err = store.Update(ctx, "missing", func(*bridge.BridgeRecord) error { return nil })
	assert.ErrorIs(t, err, bridge.ErrNotFound)
}

func TestStoreListOrdered(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, id := range []string{"b3", "b1", "b2"} {
		rec := pgTestRecord(id)
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
