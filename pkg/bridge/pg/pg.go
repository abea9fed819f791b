// Package pg implements the bridge Store on Postgres with bun
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
)

// Store is the Postgres-backed bridge store
type Store struct {
	db *bun.DB
}

// NewStore creates a store over an existing connection
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, record *bridge.BridgeRecord) error {
	dao := toDao(record)
	if _, err := s.db.NewInsert().Model(dao).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert bridge %s: %w", record.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*bridge.BridgeRecord, error) {
	dao := new(BridgeDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bridge.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch bridge %s: %w", id, err)
	}
	return dao.toRecord()
}

// Update applies fn to the row under SELECT FOR UPDATE so concurrent
// mutations of the same bridge serialize.
func (s *Store) Update(ctx context.Context, id string, fn func(*bridge.BridgeRecord) error) (*bridge.BridgeRecord, error) {
	var out *bridge.BridgeRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := new(BridgeDao)
		err := tx.NewSelect().Model(dao).Where("id = ?", id).For("UPDATE").Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return bridge.ErrNotFound
			}
			return fmt.Errorf("failed to fetch bridge %s: %w", id, err)
		}

		record, err := dao.toRecord()
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().Model(toDao(record)).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to update bridge %s: %w", id, err)
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]*bridge.BridgeRecord, error) {
	var daos []BridgeDao
	err := s.db.NewSelect().Model(&daos).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridges: %w", err)
	}
	out := make([]*bridge.BridgeRecord, 0, len(daos))
	for i := range daos {
		record, err := daos[i].toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
