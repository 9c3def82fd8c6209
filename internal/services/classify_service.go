package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// ClassifyService runs the identification cascade. Each stage either takes
// a position strong enough to stop the cascade or passes the document down;
// a stage failure counts as no opinion and never aborts classification.
type ClassifyService struct {
	external    identify.Identifier
	phrases     identify.Identifier
	statistical identify.Identifier
	keywords    identify.Identifier

	// externalAccept and statisticalAccept gate how confident those stages
	// must be before their answer is terminal. Strictly greater than.
	externalAccept    float64
	statisticalAccept float64
}

// NewClassifyService wires the cascade in its fixed order: external backend,
// phrase matcher, statistical classifier, keyword scorer.
func NewClassifyService(external, phrases, statistical, keywords identify.Identifier, externalAccept, statisticalAccept float64) *ClassifyService {
	return &ClassifyService{
		external:          external,
		phrases:           phrases,
		statistical:       statistical,
		keywords:          keywords,
		externalAccept:    externalAccept,
		statisticalAccept: statisticalAccept,
	}
}

// Classify runs the cascade over the document text and always returns a
// normalized result. Empty text is unknown without consulting any stage.
func (s *ClassifyService) Classify(ctx context.Context, text string) identify.Result {
	if strings.TrimSpace(text) == "" {
		return identify.NoOpinion()
	}

	if s.external != nil && ctx.Err() == nil {
		res, err := s.external.Identify(ctx, text)
		switch {
		case errors.Is(err, models.ErrNoBackend):
			// nothing active, move on
		case err != nil:
			log.Warnf("External backend failed, continuing cascade: %v", err)
		default:
			res = res.Normalize()
			if res.Category != identify.Unknown && res.Confidence > s.externalAccept {
				log.Infof("External backend identified %s (%.1f%%)", res.Category, res.Confidence)
				return res
			}
			log.Debugf("External backend below acceptance (%.1f%%), continuing", res.Confidence)
		}
	}

	if s.phrases != nil && ctx.Err() == nil {
		res, err := s.phrases.Identify(ctx, text)
		if err != nil {
			log.Warnf("Phrase matching failed, continuing cascade: %v", err)
		} else if res.Category != identify.Unknown {
			res = res.Normalize()
			log.Infof("Phrase match identified %s (%.1f%%)", res.Category, res.Confidence)
			return res
		}
	}

	if s.statistical != nil && ctx.Err() == nil {
		res, err := s.statistical.Identify(ctx, text)
		switch {
		case errors.Is(err, models.ErrNotTrained):
			log.Debug("Statistical classifier not trained yet, continuing")
		case err != nil:
			log.Warnf("Statistical classifier failed, continuing cascade: %v", err)
		default:
			res = res.Normalize()
			if res.Category != identify.Unknown && res.Confidence > s.statisticalAccept {
				log.Infof("Statistical classifier identified %s (%.1f%%)", res.Category, res.Confidence)
				return res
			}
			log.Debugf("Statistical classifier below acceptance (%.1f%%), continuing", res.Confidence)
		}
	}

	if s.keywords != nil && ctx.Err() == nil {
		res, err := s.keywords.Identify(ctx, text)
		if err != nil {
			log.Warnf("Keyword scoring failed: %v", err)
		} else {
			res = res.Normalize()
			if res.Category != identify.Unknown {
				log.Infof("Keyword scoring identified %s (%.1f%%)", res.Category, res.Confidence)
			}
			return res
		}
	}

	return identify.NoOpinion()
}
