// Package models - API response types and error handling.
// This file defines the outgoing payloads of the status endpoint.
//
// Response Design Principles:
// - The status payload is a flat object with a fixed key set
// - Errors share one JSON shape with a machine-readable code
// - RFC3339 timestamps for error bodies
package models

import (
	"time"
)

// StatusSchemaVersion identifies the wire schema of StatusSnapshot. Version 1
// returned the raw load average and full memory/disk structures; version 2 is
// the flat percentage object below. Only version 2 is served.
const StatusSchemaVersion = "2"

// StatusSnapshot is the per-request aggregated host status.
//
// A snapshot is built fresh for every request and never cached. Fields are
// read at slightly different instants, so no cross-field consistency is implied.
type StatusSnapshot struct {
	CPU             float64 `json:"cpu"`              // CPU utilisation percent across all cores
	VirtualMemory   float64 `json:"virtual_memory"`   // Virtual memory used percent
	SwapMemory      float64 `json:"swap_memory"`      // Swap used percent
	DiskUsage       float64 `json:"disk_usage"`       // Root filesystem used percent
	ElasticsearchUp bool    `json:"elasticsearch_up"` // Both probe ports accepted a connection
}

// ErrorResponse is the body of every non-2xx response that has one. The 403
// for unserved routes has no body.
type ErrorResponse struct {
	Error     string    `json:"error"`          // Error type (always "error")
	Message   string    `json:"message"`        // Human-readable error description
	Code      string    `json:"code,omitempty"` // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`      // Error occurrence time
}

// Standard HTTP Error Codes
const (
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeMetricsUnavailable = "METRICS_UNAVAILABLE" // 500: Host metrics could not be read
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED" // 429: Client exceeded its request budget
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}
