package pipeline

// Status is the last-known run state, served by GET /sync/status.
type Status struct {
	LastRunAt   string `json:"last_run_at"`
	LastOkAt    string `json:"last_ok_at"`
	LastError   string `json:"last_error"`
	LastScraped int    `json:"last_scraped"`
	LastSynced  int    `json:"last_synced"`
	LastMatched int    `json:"last_matched"`
	Running     bool   `json:"running"`
}
