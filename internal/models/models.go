package models

import (
	"time"
)

// Category is a destination department a document can be routed to.
// Keywords are ordered; several scoring rules depend on first-registered
// and first-keyword tie-breaks, so order is preserved through persistence.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// TrainingExample is a (text, category) pair used to fit the statistical
// classifier. Corrected documents and synthetic corpus entries share this shape.
type TrainingExample struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// UncertainEntry records a document that did not clear the routing threshold.
// The computed (category, confidence) is kept for operator reference.
type UncertainEntry struct {
	ID                string    `db:"id" json:"id"`
	Path              string    `db:"path" json:"path"`
	Text              string    `db:"text" json:"-"`
	Category          string    `db:"category" json:"category"`
	Confidence        float64   `db:"confidence" json:"confidence"`
	Source            string    `db:"source" json:"source"`
	Corrected         bool      `db:"corrected" json:"corrected"`
	CorrectedCategory string    `db:"corrected_category" json:"corrected_category,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// DocumentFields holds values extracted by the regex helpers. They are
// persisted alongside the routed document but never influence classification.
type DocumentFields struct {
	PersonalNumber string `json:"personal_number,omitempty"`
	ReferralDate   string `json:"referral_date,omitempty"`
}
