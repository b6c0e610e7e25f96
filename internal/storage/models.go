package storage

import "time"

// Font weight kinds stored in font_weights
const (
	KindUsed     = "used"
	KindDeclared = "declared"
	KindUnused   = "unused"
)

// Page statuses stored in scanned_pages
const (
	PageAnalyzed = "analyzed"
	PageFailed   = "failed"
)

// Metrics tracks crawl statistics for export on exit
type Metrics struct {
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	PagesDiscovered    int       `json:"pages_discovered"`
	PagesAnalyzed      int       `json:"pages_analyzed"`
	PagesFailed        int       `json:"pages_failed"`
	StylesheetsFetched int       `json:"stylesheets_fetched"`
	StylesheetsFailed  int       `json:"stylesheets_failed"`
	PreloadsMatched    int       `json:"preloads_matched"`
	PreloadsSkipped    int       `json:"preloads_skipped"`
	TotalLoadTimeMs    int64     `json:"total_load_time_ms"`
	AvgLoadTimeMs      int64     `json:"avg_load_time_ms"`
	TerminationReason  string    `json:"termination_reason"`
}
