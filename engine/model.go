package engine

import (
	"context"

	"github.com/ftthdiag/diagchat/models"
)

// ModelClient streams one model-generation step. The returned channels are
// both closed when the step's stream ends; a value on the error channel is
// fatal for the run. Tool calls arrive as chunks and are dispatched by the
// engine after the step finishes streaming.
type ModelClient interface {
	StreamStep(ctx context.Context, req models.StepRequest) (<-chan models.StepChunk, <-chan error)
}
