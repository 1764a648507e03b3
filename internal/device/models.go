// Package device maintains one record per physical sensor unit and
// reconciles detection and health events into it.
package device

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrDeviceNotFound = errors.New("device not found")
)

// Quality is the derived LTE signal-quality category.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// QualityFromRssi buckets an LTE RSSI reading into a category. A nil
// reading yields nil: absence is preserved, never defaulted.
func QualityFromRssi(rssi *int) *Quality {
	if rssi == nil {
		return nil
	}
	var q Quality
	switch {
	case *rssi > -60:
		q = QualityExcellent
	case *rssi > -80:
		q = QualityGood
	case *rssi > -90:
		q = QualityFair
	default:
		q = QualityPoor
	}
	return &q
}

// Device represents a physical sensor unit. The ID is assigned by the
// device itself; records are created implicitly on first contact by
// whichever event kind arrives first.
type Device struct {
	ID             string
	Name           string
	Online         bool
	BatteryPercent *int
	SignalQuality  *Quality
	DetectionCount int64
	LastSeen       time.Time
	Latitude       *float64
	Longitude      *float64
	Firmware       *string
}

// ListOptions contains options for listing devices.
type ListOptions struct {
	Limit int
}

// ListResult contains the result of listing devices.
type ListResult struct {
	Items      []*Device
	NextCursor string
}
