package domain

import "time"

// Window is an inclusive timestamp range for aggregation
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// EngineStats is the presence ratio for a single engine within a window
type EngineStats struct {
	Engine        Engine  `json:"engine"`
	TotalChecks   int     `json:"total_checks"`
	PresenceCount int     `json:"presence_count"`
	PresenceRate  float64 `json:"presence_rate"`
}

// TrendPoint is one observation in a keyword's presence time series
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Presence  bool      `json:"presence"`
}

// KeywordTrend is a keyword's ordered presence series. Gaps in the check
// cadence pass through as-is; no interpolation.
type KeywordTrend struct {
	Keyword string       `json:"keyword"`
	Points  []TrendPoint `json:"points"`
}

// VoiceShare is one name's mention frequency within the window. Proportions
// are relative to the number of checks and need not sum to 1 across names:
// one answer can mention the brand and several competitors at once.
type VoiceShare struct {
	Name       string  `json:"name"`
	Mentions   int     `json:"mentions"`
	Proportion float64 `json:"proportion"`
}

// DashboardStats aggregates a project's checks within a window. Derived on
// demand, never persisted.
type DashboardStats struct {
	Window        Window         `json:"window"`
	TotalChecks   int            `json:"total_checks"`
	PresenceCount int            `json:"presence_count"`
	PresenceRate  float64        `json:"presence_rate"`
	EngineStats   []EngineStats  `json:"engine_stats"`
	KeywordTrends []KeywordTrend `json:"keyword_trends"`
	ShareOfVoice  []VoiceShare   `json:"share_of_voice"`
}
