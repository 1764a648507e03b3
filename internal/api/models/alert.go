package models

// Alert represents a classified detection as exposed by the API.
// Immutable after creation except the reviewed and falsePositive flags.
type Alert struct {
	ID            string                 `json:"alertId"`
	DeviceID      string                 `json:"deviceId"`
	Timestamp     Timestamp              `json:"timestamp"`
	ThreatLevel   string                 `json:"threatLevel"`
	DetectionKind string                 `json:"detectionKind"`
	Rssi          int                    `json:"rssi"`
	Mac           string                 `json:"mac"`
	CellularPeak  *int                   `json:"cellularPeak,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Reviewed      bool                   `json:"reviewed"`
	FalsePositive bool                   `json:"falsePositive"`
}

// PagedAlerts is a paginated list of alerts.
type PagedAlerts struct {
	Items []Alert           `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// AlertReviewRequest is the body for PATCH /v1/alerts/{alertId}.
// Only the two flags are mutable; nil leaves a flag unchanged.
type AlertReviewRequest struct {
	Reviewed      *bool `json:"reviewed"`
	FalsePositive *bool `json:"falsePositive"`
}
