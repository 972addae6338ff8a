// Package convert provides a client for the remote CAD conversion service
// that turns proprietary binary drawings (DWG) into ASCII DXF.
package convert

import "time"

// Config holds configuration for the conversion client
type Config struct {
	BaseURL      string        `json:"base_url"`
	APIKey       string        `json:"api_key"`
	Timeout      time.Duration `json:"timeout"`
	PollInterval time.Duration `json:"poll_interval"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.cadconvert.example.com/v1",
		Timeout:      60 * time.Second,
		PollInterval: 500 * time.Millisecond,
		CacheTTL:     1 * time.Hour, // identical uploads convert to identical output
	}
}

// Job statuses reported by the conversion service.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// jobResponse is the conversion service's job resource
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Error represents a conversion API error response
type Error struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Detail
}
