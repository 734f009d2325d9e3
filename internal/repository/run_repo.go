package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aokihara/listing-engine/internal/domain"
)

type ListParams struct {
	Status   *domain.RunStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// RunRepository persists finished run snapshots. List returns run summaries
// without per-item results; GetByID loads the full result set.
type RunRepository interface {
	Save(ctx context.Context, run domain.RunState) error
	GetByID(ctx context.Context, runID string) (*domain.RunState, error)
	List(ctx context.Context, params ListParams) ([]domain.RunState, int64, error)
}

type GormRunRepo struct {
	db *gorm.DB
}

func NewGormRunRepo(db *gorm.DB) *GormRunRepo {
	return &GormRunRepo{db: db}
}

// Save upserts the run row and replaces its outcome rows, so saving the same
// run twice leaves one consistent snapshot.
func (r *GormRunRepo) Save(ctx context.Context, run domain.RunState) error {
	model := runModelFromDomain(run)

	outcomes := make([]OutcomeModel, 0, len(run.Results))
	for i, out := range run.Results {
		outcome := outcomeModelFromDomain(run.RunID, i, out)
		outcome.ID = uuid.NewString()
		outcomes = append(outcomes, *outcome)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"account_name", "status", "total", "processed", "last_message", "started_at", "finished_at", "updated_at"}),
			}).
			Create(model).Error; err != nil {
			return err
		}

		if err := tx.
			Where("run_id = ?", run.RunID).
			Delete(&OutcomeModel{}).Error; err != nil {
			return err
		}

		if len(outcomes) == 0 {
			return nil
		}

		return tx.CreateInBatches(&outcomes, 100).Error
	})
}

func (r *GormRunRepo) GetByID(ctx context.Context, runID string) (*domain.RunState, error) {
	var model RunModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var outcomes []OutcomeModel
	err = r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&outcomes).Error
	if err != nil {
		return nil, err
	}

	return runModelToDomain(&model, outcomes), nil
}

func (r *GormRunRepo) List(ctx context.Context, params ListParams) ([]domain.RunState, int64, error) {
	query := r.db.WithContext(ctx).Model(&RunModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []RunModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	runs := make([]domain.RunState, 0, len(models))
	for i := range models {
		runs = append(runs, *runModelToDomain(&models[i], nil))
	}

	return runs, total, nil
}
