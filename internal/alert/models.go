// Package alert provides the append-only log of classified detections.
package alert

import (
	"errors"
	"strings"
	"time"

	"github.com/rfsentry/rfsentry/internal/threat"
)

// Repository errors.
var (
	ErrAlertNotFound = errors.New("alert not found")
)

// Alert is one classified detection event. Rows are immutable after
// creation except the Reviewed and FalsePositive flags, which the
// review endpoints may toggle independently.
type Alert struct {
	ID            string
	DeviceID      string
	Timestamp     time.Time // device-reported event time, not receipt time
	ThreatLevel   threat.Level
	DetectionKind threat.Kind
	Rssi          int // the value the classifier actually scored
	Mac           string
	CellularPeak  *int
	Metadata      map[string]interface{}
	Reviewed      bool
	FalsePositive bool
}

// macSuffix pads reported MAC fragments to a fixed width so stored
// identifiers cannot be trivially matched against full hardware
// addresses.
const (
	macUnknown  = "UNKNOWN"
	macPadWidth = 12
	macPadRune  = 'X'
)

// MaskMac converts a raw reported MAC fragment into the privacy-padded
// form stored on alerts: "A1B2C3D4" becomes "A1B2C3D4XXXX", absent
// input becomes "UNKNOWN".
func MaskMac(raw string) string {
	if raw == "" {
		return macUnknown
	}
	if len(raw) >= macPadWidth {
		return raw[:macPadWidth]
	}
	return raw + strings.Repeat(string(macPadRune), macPadWidth-len(raw))
}

// ListOptions contains options for listing alerts.
type ListOptions struct {
	Limit    int
	DeviceID string
	Level    threat.Level
}

// ListResult contains the result of listing alerts.
type ListResult struct {
	Items      []*Alert
	NextCursor string
}

// ReviewUpdate carries the two mutable flags; nil leaves a flag as is.
type ReviewUpdate struct {
	Reviewed      *bool
	FalsePositive *bool
}
