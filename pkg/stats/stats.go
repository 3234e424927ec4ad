package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"xhscollect/pkg/models"
)

// FailedKeyword records one keyword that produced no data, together with the
// reason the collection gave up on it.
type FailedKeyword struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// CollectionRun aggregates the outcome of one campaign over a keyword list.
// The JSON field set and names are the external contract consumed by
// downstream tooling, so they must not change.
type CollectionRun struct {
	TotalKeywords      int             `json:"total_keywords"`
	SuccessfulKeywords int             `json:"successful_keywords"`
	TotalNotes         int             `json:"total_notes"`
	FailedKeywords     []FailedKeyword `json:"failed_keywords"`
	Timestamp          string          `json:"timestamp"`

	// Bookkeeping for the running process, not part of the stats file.
	Category string    `json:"-"`
	Started  time.Time `json:"-"`
}

// NewCollectionRun starts an empty run summary. The timestamp is fixed at
// campaign start, not at save time.
func NewCollectionRun(category string, totalKeywords int) *CollectionRun {
	now := time.Now()
	return &CollectionRun{
		TotalKeywords:  totalKeywords,
		FailedKeywords: make([]FailedKeyword, 0),
		Timestamp:      now.Format(models.TimeLayout),
		Category:       category,
		Started:        now,
	}
}

// RecordSuccess counts one keyword that yielded notes. notes is the number
// of records that survived detail fetching for that keyword.
func (r *CollectionRun) RecordSuccess(notes int) {
	r.SuccessfulKeywords++
	r.TotalNotes += notes
}

// RecordFailure adds a keyword to the failure list. A keyword that merely
// yielded zero notes is not a failure and must not be recorded here.
func (r *CollectionRun) RecordFailure(keyword, reason string) {
	r.FailedKeywords = append(r.FailedKeywords, FailedKeyword{
		Keyword: keyword,
		Reason:  reason,
	})
}

// Attempted returns how many keywords reached a terminal outcome so far.
func (r *CollectionRun) Attempted() int {
	return r.SuccessfulKeywords + len(r.FailedKeywords)
}

// Save writes the run summary to path atomically: the JSON is staged in a
// temporary file which then replaces the target, so a crash never leaves a
// truncated stats file behind.
func (r *CollectionRun) Save(path string) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary stats file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync stats file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close stats file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace stats file: %w", err)
	}

	return nil
}

// Load reads a previously saved run summary.
func Load(path string) (*CollectionRun, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats file: %w", err)
	}
	defer file.Close()

	var run CollectionRun
	if err := json.NewDecoder(file).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run stats: %w", err)
	}
	if run.FailedKeywords == nil {
		run.FailedKeywords = make([]FailedKeyword, 0)
	}
	return &run, nil
}
