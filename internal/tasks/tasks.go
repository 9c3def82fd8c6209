package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types handled by the worker.
const (
	// TypeDocumentProcess runs one document through the full pipeline.
	TypeDocumentProcess = "document:process"
	// TypeModelRetrain refits the statistical model on the accumulated
	// corrections.
	TypeModelRetrain = "model:retrain"
)

// DocumentProcessPayload carries the document path for TypeDocumentProcess.
type DocumentProcessPayload struct {
	Path string `json:"path"`
}

// NewDocumentProcessTask builds the task for processing one document.
func NewDocumentProcessTask(path string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{Path: path})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TypeDocumentProcess, err)
	}
	return asynq.NewTask(TypeDocumentProcess, payload), nil
}

// NewModelRetrainTask builds the retrain task. It carries no payload; the
// handler always trains on the full correction history.
func NewModelRetrainTask() *asynq.Task {
	return asynq.NewTask(TypeModelRetrain, nil)
}
