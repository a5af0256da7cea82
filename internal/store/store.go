// Package store provides persistence for named scenarios and the evaluation journal.
package store

import (
	"context"
	"strings"

	apperrors "optionflow/internal/errors"
	"optionflow/internal/models"
)

// MaxNameLength bounds scenario names.
const MaxNameLength = 64

// DefaultHistoryLimit is used when GetEvaluations is called with limit <= 0.
const DefaultHistoryLimit = 50

// ScenarioStore defines the interface for scenario persistence.
type ScenarioStore interface {
	// Scenarios
	SaveScenario(ctx context.Context, scenario *models.Scenario) error
	GetScenario(ctx context.Context, name string) (*models.Scenario, error)
	ListScenarios(ctx context.Context) ([]models.Scenario, error)
	DeleteScenario(ctx context.Context, name string) error

	// Evaluation journal
	LogEvaluation(ctx context.Context, eval *models.Evaluation) error
	GetEvaluations(ctx context.Context, scenario string, limit int) ([]models.Evaluation, error)

	// Lifecycle
	Close() error
}

// NormalizeName trims a scenario name and checks it is usable as a key.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", apperrors.NewValidationError("name", name, "scenario name is required")
	case len(name) > MaxNameLength:
		return "", apperrors.NewValidationError("name", name, "scenario name is too long")
	}
	return name, nil
}
