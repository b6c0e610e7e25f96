package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/fontscan/internal/storage"
)

// Tracker holds and manages crawl metrics
type Tracker struct {
	mu              sync.Mutex
	data            storage.Metrics
	totalLoadTimeMs int64
	loadCount       int
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{
			StartTime: time.Now(),
		},
	}
}

// AddPagesDiscovered adds to the discovered pages counter
func (t *Tracker) AddPagesDiscovered(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesDiscovered += n
}

// IncrementPagesAnalyzed increments the analyzed pages counter
func (t *Tracker) IncrementPagesAnalyzed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesAnalyzed++
}

// IncrementPagesFailed increments the failed pages counter
func (t *Tracker) IncrementPagesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFailed++
}

// IncrementStylesheetsFetched increments the successful stylesheet counter
func (t *Tracker) IncrementStylesheetsFetched() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.StylesheetsFetched++
}

// IncrementStylesheetsFailed increments the failed stylesheet counter
func (t *Tracker) IncrementStylesheetsFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.StylesheetsFailed++
}

// AddPreloads records matched and skipped preload hints of one page
func (t *Tracker) AddPreloads(matched, skipped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PreloadsMatched += matched
	t.data.PreloadsSkipped += skipped
}

// RecordLoadTime records a page load duration
func (t *Tracker) RecordLoadTime(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalLoadTimeMs += duration.Milliseconds()
	t.loadCount++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.data
	snapshot.TotalLoadTimeMs = t.totalLoadTimeMs
	if t.loadCount > 0 {
		snapshot.AvgLoadTimeMs = t.totalLoadTimeMs / int64(t.loadCount)
	}
	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	t.data.TotalLoadTimeMs = t.totalLoadTimeMs
	if t.loadCount > 0 {
		t.data.AvgLoadTimeMs = t.totalLoadTimeMs / int64(t.loadCount)
	}

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics for periodic console updates
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Pages: %d discovered, %d analyzed, %d failed | Stylesheets: %d fetched, %d failed | Preloads: %d matched, %d skipped",
		t.data.PagesDiscovered,
		t.data.PagesAnalyzed,
		t.data.PagesFailed,
		t.data.StylesheetsFetched,
		t.data.StylesheetsFailed,
		t.data.PreloadsMatched,
		t.data.PreloadsSkipped,
	)
}
