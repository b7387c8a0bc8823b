// Package store persists journal entries behind contracts.HoldingRepository
package store

import (
	"context"
	"fmt"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/database"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Open returns the holding store selected by STORE_DRIVER
// ⭐ SSOT: 저장소 드라이버 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.HoldingRepository, error) {
	log = log.WithField("store", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.StoreMongo:
		s, err := NewMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgres(ctx, db, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		log.Warn("Using in-memory holding store, data will not survive restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

var (
	_ contracts.HoldingRepository = (*Mongo)(nil)
	_ contracts.HoldingRepository = (*Postgres)(nil)
	_ contracts.HoldingRepository = (*Memory)(nil)
)
