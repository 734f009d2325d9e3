package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/aokihara/listing-engine/internal/repository"
)

func createRunsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_runs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.RunModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_status_created ON runs (status, created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.RunModel{})
		},
	}
}
