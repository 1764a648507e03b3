package models

// Health is the liveness/readiness response body.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// IngestAck is the minimal acknowledgment returned to the upstream
// relay. The relay only checks the status code; the body exists for
// humans reading delivery logs.
type IngestAck struct {
	Status  string  `json:"status"`
	AlertID *string `json:"alertId,omitempty"`
}
