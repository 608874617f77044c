// Package ai provides the meeting summarization service
package ai

import (
	"context"
	"errors"
)

// ErrEmptySummary indicates the model produced no usable content.
// Retrying with identical input is pointless, callers treat it as
// unrecoverable.
var ErrEmptySummary = errors.New("summarizer returned empty content")

// SummaryLength selects the target size of the overview narrative
type SummaryLength string

const (
	SummaryLengthBrief    SummaryLength = "brief"
	SummaryLengthMedium   SummaryLength = "medium"
	SummaryLengthDetailed SummaryLength = "detailed"
)

// SummaryParams tunes a single summarization request
type SummaryParams struct {
	// ForceLanguage overrides dominant-language detection when set
	ForceLanguage string
	// MaxSections caps the thematic note sections, 3 to 8
	MaxSections int
	// Length picks the overview size tier
	Length SummaryLength
}

// Summarizer produces a markdown summary from a serialized enriched
// transcript. Implementations must return a non-empty summary or an
// error, never both empty.
type Summarizer interface {
	Summarize(ctx context.Context, transcriptJSON string, params SummaryParams) (string, error)
}
