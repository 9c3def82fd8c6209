package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
	"remsort/internal/ocr"
	"remsort/internal/routing"
	"remsort/internal/store"
)

// ProcessResult reports what happened to one document.
type ProcessResult struct {
	Path        string          `json:"path"`
	Result      identify.Result `json:"result"`
	Accepted    bool            `json:"accepted"`
	Destination string          `json:"destination"`
	UncertainID string          `json:"uncertain_id,omitempty"`
}

// ProcessService takes a document from file to routed destination:
// text extraction, classification, field extraction, threshold routing,
// and queueing for manual review when confidence falls short.
type ProcessService struct {
	extractor ocr.Extractor
	classify  *ClassifyService
	router    *routing.FileRouter
	uncertain store.UncertainStore
	threshold float64
}

func NewProcessService(extractor ocr.Extractor, classify *ClassifyService, router *routing.FileRouter, uncertain store.UncertainStore, threshold float64) *ProcessService {
	return &ProcessService{
		extractor: extractor,
		classify:  classify,
		router:    router,
		uncertain: uncertain,
		threshold: threshold,
	}
}

// ProcessFile runs the full pipeline for a single document.
func (s *ProcessService) ProcessFile(ctx context.Context, path string) (ProcessResult, error) {
	log.Infof("Processing %s", path)

	text, err := s.extractor.ExtractText(ctx, path)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("text extraction failed for %s: %w", path, err)
	}

	res := s.classify.Classify(ctx, text)
	fields := ExtractFields(text)
	dec := routing.Decide(res, s.threshold)

	dst, err := s.router.Route(path, dec)
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.router.WriteSidecar(dst, res.Category, fields); err != nil {
		log.Errorf("Sidecar for %s: %v", dst, err)
	}

	out := ProcessResult{
		Path:        path,
		Result:      res,
		Accepted:    dec.Accepted,
		Destination: dec.Destination,
	}

	if dec.Accepted {
		log.Infof("Routed %s to %s (%.1f%%)", path, dec.Destination, res.Confidence)
		return out, nil
	}

	log.Warnf("Routed %s to uncertain queue (%.1f%%)", path, res.Confidence)
	entry := models.UncertainEntry{
		ID:         uuid.NewString(),
		Path:       dst,
		Text:       text,
		Category:   res.Category,
		Confidence: res.Confidence,
		Source:     string(res.Source),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.uncertain.AddUncertain(ctx, &entry); err != nil {
		return ProcessResult{}, fmt.Errorf("failed to queue %s for review: %w", path, err)
	}
	out.UncertainID = entry.ID
	return out, nil
}

// ProcessDir runs every regular file in the input directory through the
// pipeline. Sidecar .dat files are skipped. Individual failures are logged
// and counted, not fatal.
func (s *ProcessService) ProcessDir(ctx context.Context, dir string) (succeeded, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read input directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".dat" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return succeeded, failed, err
		}
		if _, err := s.ProcessFile(ctx, filepath.Join(dir, e.Name())); err != nil {
			log.Errorf("Failed to process %s: %v", e.Name(), err)
			failed++
			continue
		}
		succeeded++
	}

	log.Infof("Processed %d documents, %d failed", succeeded, failed)
	return succeeded, failed, nil
}
