package fonts

import "time"

// Stats describes the crawl that produced a report
type Stats struct {
	StartURL       string    `json:"start_url"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	PagesFound     int       `json:"pages_found"`
	PagesAnalyzed  []string  `json:"pages_analyzed"`
	PagesFailed    []string  `json:"pages_failed,omitempty"`
	Interrupted    bool      `json:"interrupted"`
	StylesheetErrs int       `json:"stylesheet_errors"`
}

// Report is the reconciliation result of one crawl run
type Report struct {
	Stats              Stats              `json:"stats"`
	Used               []Observation      `json:"used"`
	Declared           []Observation      `json:"declared"`
	Unused             []Observation      `json:"unused"`
	Missing            []string           `json:"missing"`
	NotationMismatches []NotationMismatch `json:"notation_mismatches,omitempty"`
}
