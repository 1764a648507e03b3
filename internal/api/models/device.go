package models

// Device represents a sensor unit as exposed by the API.
type Device struct {
	ID             string    `json:"deviceId"`
	Name           string    `json:"name"`
	Online         bool      `json:"online"`
	BatteryPercent *int      `json:"batteryPercent,omitempty"`
	SignalQuality  *string   `json:"signalQuality,omitempty"`
	DetectionCount int64     `json:"detectionCount"`
	LastSeen       Timestamp `json:"lastSeen"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Firmware       *string   `json:"firmware,omitempty"`
}

// PagedDevices is a paginated list of devices.
type PagedDevices struct {
	Items []Device          `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// DeviceUpdateRequest is the body for PUT /v1/devices/{deviceId}.
type DeviceUpdateRequest struct {
	Name string `json:"name"`
}

// DeviceStatus is the compact status delta published to real-time
// subscribers after a device upsert.
type DeviceStatus struct {
	DeviceID       string    `json:"deviceId"`
	Online         bool      `json:"online"`
	BatteryPercent *int      `json:"batteryPercent,omitempty"`
	SignalQuality  *string   `json:"signalQuality,omitempty"`
	LastSeen       Timestamp `json:"lastSeen"`
}
