package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	datapassage "guka/app/internal/data/passage"
)

// MigratePassages applies the passage and revision schema using Gorm's AutoMigrate and logs progress.
func MigratePassages(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "passage.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Debug("applying passage schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&datapassage.PassageRecord{}, &datapassage.RevisionRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("passage schema migration failed")
		}
		return eris.Wrap(err, "auto migrating passage schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Debug("passage schema migration complete")
	}

	return nil
}
