package model

// LoadStats accumulates per-file outcomes over one bulk-load invocation.
// Counters are monotonic and never retroactively corrected.
type LoadStats struct {
	TotalFiles int `json:"totalFiles"`
	Loaded     int `json:"loaded"`
	Failed     int `json:"failed"`
}

// LoadSummary is the combined result of a reload: the load stats plus the
// record count observed by the post-load verification wait. A VerifiedCount
// of 0 means verification was inconclusive, not that the load failed.
type LoadSummary struct {
	Stats         LoadStats `json:"stats"`
	VerifiedCount int       `json:"verifiedCount"`
}
