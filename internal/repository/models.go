package repository

import (
	"time"

	"github.com/aokihara/listing-engine/internal/domain"
)

// RunModel is the persistence model for the runs table.
type RunModel struct {
	ID          string           `gorm:"type:uuid;primaryKey"`
	AccountName string           `gorm:"type:varchar(255)"`
	Status      domain.RunStatus `gorm:"type:varchar(20);not null"`
	Total       int              `gorm:"not null;default:0"`
	Processed   int              `gorm:"not null;default:0"`
	LastMessage string           `gorm:"type:text"`
	StartedAt   *time.Time       `gorm:"type:timestamptz"`
	FinishedAt  *time.Time       `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RunModel) TableName() string {
	return "runs"
}

// OutcomeModel is the persistence model for run_outcomes. Position preserves
// the input order of the batch.
type OutcomeModel struct {
	ID         string             `gorm:"type:uuid;primaryKey"`
	RunID      string             `gorm:"type:uuid;not null"`
	Position   int                `gorm:"not null"`
	Identifier string             `gorm:"type:varchar(64);not null"`
	Kind       domain.OutcomeKind `gorm:"type:varchar(20);not null"`
	Price      float64            `gorm:"type:numeric(12,2);not null;default:0"`
	Stock      int                `gorm:"not null;default:0"`
	Message    *string            `gorm:"type:text"`
	CreatedAt  time.Time
}

func (OutcomeModel) TableName() string {
	return "run_outcomes"
}

func runModelFromDomain(run domain.RunState) *RunModel {
	return &RunModel{
		ID:          run.RunID,
		AccountName: run.AccountName,
		Status:      run.Status,
		Total:       run.Total,
		Processed:   run.Processed,
		LastMessage: run.LastMessage,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
}

func runModelToDomain(m *RunModel, outcomes []OutcomeModel) *domain.RunState {
	if m == nil {
		return nil
	}

	results := make([]domain.Outcome, 0, len(outcomes))
	for i := range outcomes {
		results = append(results, *outcomeModelToDomain(&outcomes[i]))
	}

	return &domain.RunState{
		RunID:       m.ID,
		AccountName: m.AccountName,
		Status:      m.Status,
		Total:       m.Total,
		Processed:   m.Processed,
		Results:     results,
		LastMessage: m.LastMessage,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
	}
}

func outcomeModelFromDomain(runID string, position int, out domain.Outcome) *OutcomeModel {
	var message *string
	if out.Message != "" {
		msg := out.Message
		message = &msg
	}

	return &OutcomeModel{
		RunID:      runID,
		Position:   position,
		Identifier: out.Identifier,
		Kind:       out.Kind,
		Price:      out.Price,
		Stock:      out.Stock,
		Message:    message,
	}
}

func outcomeModelToDomain(m *OutcomeModel) *domain.Outcome {
	if m == nil {
		return nil
	}

	out := &domain.Outcome{
		Identifier: m.Identifier,
		Kind:       m.Kind,
		Price:      m.Price,
		Stock:      m.Stock,
	}
	if m.Message != nil {
		out.Message = *m.Message
	}

	return out
}
