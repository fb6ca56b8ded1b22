package database

import (
	"errors"
	"time"

	"github.com/reginald-press/reginald/internal/articles"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillSettingsJSON = "2026-07-14_backfill_article_settings_json"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillSettingsJSON, apply: backfillSettingsJSON},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows written before the per-article settings column carried an empty string,
// which the partial-settings decoder treats as malformed. Normalize to the
// empty JSON object.
func backfillSettingsJSON(db *gorm.DB) error {
	return db.Model(&articles.Article{}).
		Where("settings_json = ?", "").
		Update("settings_json", "{}").Error
}
