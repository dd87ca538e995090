package model

// Health statuses reported by /api/health.
const (
	StatusUp            = "UP"
	StatusDegraded      = "DEGRADED"
	StatusConnected     = "CONNECTED"
	StatusDisconnected  = "DISCONNECTED"
	HealthTimestampForm = "2006-01-02T15:04:05.000"
)

// StorageStats holds row counts of the backing store.
type StorageStats struct {
	MenuItems   int64
	Restaurants int64
}

// DatabaseHealth describes the storage part of the health report.
type DatabaseHealth struct {
	Status      string `json:"status"`
	MenuItems   *int64 `json:"menu_items,omitempty"`
	Restaurants *int64 `json:"restaurants,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthReport is the body of GET /api/health.
type HealthReport struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Database  DatabaseHealth `json:"database"`
}
