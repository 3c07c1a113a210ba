package preferences

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medimaging-diagnosis-hub/internal/database"
	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg domain.PreferencesConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.WithField("path", cfg.SQLitePath).Info("Using SQLite preference store")
		return store, nil
	case "postgres":
		db, err := database.Open(ctx, cfg.PostgresDSN, database.DefaultPoolConfig(), logger)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Using PostgreSQL preference store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported preferences driver %q", cfg.Driver)
	}
}
