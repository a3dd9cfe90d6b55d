package main

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	"github.com/wildforest/ticketsync/internal/config"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

// openGrid builds the row store backend selected by cfg. The returned closer
// releases backend resources that the grid itself does not own.
func openGrid(ctx context.Context, cfg *config.Config, cols ticket.Columns, l logger.Logger) (rowstore.Grid, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		if !cfg.SeedDemo {
			return rowstore.NewMemoryGrid(), nil, nil
		}
		l.Info(ctx, "seeding in-memory sheet with demo tickets")
		return rowstore.NewMemoryGrid(rowstore.DemoRows(cols)...), nil, nil

	case config.BackendSQLite:
		g, err := rowstore.OpenSQLiteGrid(cfg.SQLite.Path, cfg.SQLite.Sheet)
		if err != nil {
			return nil, nil, err
		}
		if cfg.SeedDemo {
			if err := g.Seed(ctx, rowstore.DemoRows(cols)); err != nil {
				_ = g.Close()
				return nil, nil, fmt.Errorf("seed sqlite sheet: %w", err)
			}
		}
		l.Info(ctx, "opened sqlite sheet",
			logger.String("path", cfg.SQLite.Path),
			logger.String("sheet", cfg.SQLite.Sheet))
		return g, nil, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		l.Info(ctx, "using redis sheet",
			logger.String("addr", cfg.Redis.Addr),
			logger.String("prefix", cfg.Redis.Prefix))
		return rowstore.NewRedisGrid(rdb, cfg.Redis.Prefix), rdb, nil

	case config.BackendSheets:
		svc, err := rowstore.NewSheetsService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.CredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		l.Info(ctx, "using google sheet",
			logger.String("spreadsheet", cfg.Sheets.SpreadsheetID),
			logger.String("sheet", cfg.Sheets.SheetName))
		return rowstore.NewSheetsGrid(svc, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
