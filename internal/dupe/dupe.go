package dupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"
)

// DefaultThreshold is the similarity score at or above which a report is
// considered a duplicate.
const DefaultThreshold = 0.85

// WindowSize is the recommended corpus bound: callers hand the detector the
// most recent N prior reports, most-recent-first. The detector treats that
// window as the entire comparison universe.
const WindowSize = 200

// Entry is one prior report in the comparison corpus.
type Entry struct {
	ID          int64
	Title       string
	Description string
}

// Match is the outcome of a duplicate check. Score is the best similarity
// found even when below threshold; MatchedID is only set for duplicates.
type Match struct {
	IsDuplicate bool    `json:"is_duplicate"`
	MatchedID   int64   `json:"matched_report_id,omitempty"`
	Score       float64 `json:"score"`
}

// Hooks receives detector observations. Wired to Prometheus by main; any
// field may be nil.
type Hooks struct {
	// OnEmbed fires after each embedding backend call.
	OnEmbed func(backend string, duration float64, ok bool)

	// OnCheck fires once per duplicate check with the final outcome.
	OnCheck func(dup bool, score float64)
}

// Detector compares a new report against a window of prior reports.
type Detector struct {
	embedder  Embedder
	threshold float64
	logger    log.Logger
	hooks     Hooks
}

// NewDetector creates a detector. A non-positive threshold selects
// DefaultThreshold.
func NewDetector(embedder Embedder, threshold float64, logger log.Logger, hooks Hooks) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Detector{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
		hooks:     hooks,
	}
}

// FindDuplicate embeds the candidate and every corpus entry, and returns the
// best match. Corpus order is most-recent-first; ties keep the first (most
// recent) entry.
func (d *Detector) FindDuplicate(ctx context.Context, title, description string, corpus []Entry) (Match, error) {
	if len(corpus) == 0 {
		return d.checked(Match{}), nil
	}

	texts := make([]string, 0, len(corpus)+1)
	texts = append(texts, reportText(title, description))
	for _, e := range corpus {
		texts = append(texts, reportText(e.Title, e.Description))
	}

	vecs, err := d.embedder.Embed(ctx, texts)
	if err != nil {
		return Match{}, fmt.Errorf("embed reports: %w", err)
	}
	if len(vecs) != len(texts) {
		return Match{}, fmt.Errorf("embed reports: got %d vectors for %d inputs", len(vecs), len(texts))
	}

	candidate := vecs[0]
	bestIdx := 0
	bestScore := -1.0
	for i, v := range vecs[1:] {
		// Vectors are unit length, so cosine similarity is the dot product.
		if score := dot(candidate, v); score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}

	m := Match{Score: bestScore}
	if bestScore >= d.threshold {
		m.IsDuplicate = true
		m.MatchedID = corpus[bestIdx].ID
	}

	d.logger.Info(ctx, "duplicate check",
		"corpus_size", len(corpus),
		"best_score", bestScore,
		"is_duplicate", m.IsDuplicate,
	)

	return d.checked(m), nil
}

func (d *Detector) checked(m Match) Match {
	if d.hooks.OnCheck != nil {
		d.hooks.OnCheck(m.IsDuplicate, m.Score)
	}
	return m
}

func reportText(title, description string) string {
	return strings.TrimSpace(title + "\n" + description)
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := range n {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
