// Package worker holds the asynq task handlers. Handlers return errors for
// retryable failures; asynq applies its default retry policy.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"remsort/internal/services"
	"remsort/internal/tasks"
)

// Deps are the services the handlers need.
type Deps struct {
	Process  *services.ProcessService
	Feedback *services.FeedbackService
}

// RegisterHandlers attaches all task handlers to the mux.
func RegisterHandlers(mux *asynq.ServeMux, deps Deps) {
	mux.HandleFunc(tasks.TypeDocumentProcess, HandleDocumentProcess(deps))
	mux.HandleFunc(tasks.TypeModelRetrain, HandleModelRetrain(deps))
}

// HandleDocumentProcess runs one document through the pipeline.
func HandleDocumentProcess(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload tasks.DocumentProcessPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		res, err := deps.Process.ProcessFile(ctx, payload.Path)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"path":     payload.Path,
			"category": res.Result.Category,
			"accepted": res.Accepted,
		}).Info("document processed")
		return nil
	}
}

// HandleModelRetrain refits the statistical model.
func HandleModelRetrain(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		accuracy, err := deps.Feedback.RetrainFromCorrections(ctx)
		if err != nil {
			return err
		}
		log.WithField("accuracy", accuracy).Info("model retrained")
		return nil
	}
}
