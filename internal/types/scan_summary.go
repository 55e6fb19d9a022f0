package types

// ScanSummary holds the totals of one corpus scan or retry
type ScanSummary struct {
	Profile string `json:"profile"`
	RunID   string `json:"run_id,omitempty"`
	// Packages is the number of packages registered by the listing
	Packages int `json:"packages"`
	// Logs is the number of log paths in the listing
	Logs     int `json:"logs"`
	Scanned  int `json:"scanned"`
	Cached   int `json:"cached"`
	Missing  int `json:"missing"`
	Records  int `json:"records"`
	Failures int `json:"failures"`
	// FailedLogs is the number of distinct logs written to the failure list
	FailedLogs int `json:"failed_logs,omitempty"`
	Lines      int `json:"lines"`
	Headers    int `json:"headers"`
}
