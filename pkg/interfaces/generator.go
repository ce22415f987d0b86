package interfaces

import (
	"context"

	"github.com/synthtab/synthtab/pkg/models"
)

// ModelHandle identifies a trained generator model within one pipeline run.
type ModelHandle string

// Generator defines the boundary to the generative capability. The pipeline
// treats implementations as opaque: Train accepts a cleaned table, Generate
// returns a table with the same columns. Long-running implementations should
// honor ctx cancellation between internal steps.
type Generator interface {
	// GetName returns a human-readable name for the generator
	GetName() string

	// GetDescription returns a description of the generator
	GetDescription() string

	// Train fits the generator on a cleaned table and returns a handle to the
	// trained model.
	Train(ctx context.Context, table *models.Table, params GenerationParameters) (ModelHandle, error)

	// Generate produces rows synthetic rows from a previously trained model.
	Generate(ctx context.Context, handle ModelHandle, rows int) (*models.Table, error)

	// Close cleans up resources
	Close() error
}

// GenerationParameters configures a training run.
type GenerationParameters struct {
	Seed       int64                  `json:"seed"`
	Hyperparms map[string]interface{} `json:"hyperparameters,omitempty"`
}
