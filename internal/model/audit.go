package model

import "time"

// SignedRequestEvent records one signed upstream call. It never carries the
// API key or the signature itself.
type SignedRequestEvent struct {
	Timestamp  time.Time `json:"-"`
	Ts         int64     `json:"ts"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Query      string    `json:"query"`
	APIUser    string    `json:"api_user"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}
