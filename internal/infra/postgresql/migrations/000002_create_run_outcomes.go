package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/aokihara/listing-engine/internal/repository"
)

func createRunOutcomesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_run_outcomes",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OutcomeModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_run_outcomes_run_id ON run_outcomes (run_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_run_outcomes_run_position ON run_outcomes (run_id, position)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.OutcomeModel{})
		},
	}
}
