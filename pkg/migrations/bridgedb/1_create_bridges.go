package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/stablerail/cctp-orchestrator/pkg/bridge/pg"
	mghelper "github.com/stablerail/cctp-orchestrator/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating bridges table...")
		if err := mghelper.CreateSchema(ctx, db, &pg.BridgeDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &pg.BridgeDao{}, "status", "source_tx_hash", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridges table...")
		return mghelper.DropTables(ctx, db, &pg.BridgeDao{})
	})
}
