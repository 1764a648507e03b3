// Package threat scores detection events into threat levels.
package threat

import "math"

// Level represents an ordered threat category.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Kind represents a detection technology.
type Kind string

const (
	KindWifi      Kind = "w"
	KindBluetooth Kind = "b"
	KindCellular  Kind = "c"
)

// Scoring weights and thresholds.
//
// Cellular-only presence is weighted heavily: a device with its WiFi and
// Bluetooth radios disabled but an active cellular modem is consistent
// with deliberate evasion.
const (
	scoreCellular  = 40
	scoreVeryClose = 30 // rssi > -50 dBm
	scoreClose     = 15 // rssi > -70 dBm
	scoreZone0     = 20 // immediate, ~0-3m
	scoreZone1     = 10 // near, ~3-15m

	thresholdCritical = 70
	thresholdHigh     = 50
	thresholdMedium   = 30
)

// SignalFloor is the sentinel used when a reading carries no usable
// signal strength.
const SignalFloor = -100

// Classify derives a threat level from signal strength (dBm), proximity
// zone (0-3) and detection kind. It is deterministic and has no
// dependencies; the level stored on an alert is never recomputed.
//
// For cellular detections the caller is expected to pass the burst peak
// strength, not the average (cellular sensing reports burst statistics
// rather than an instantaneous reading).
func Classify(rssi float64, zone int, kind Kind) Level {
	score := Score(rssi, zone, kind)

	switch {
	case score >= thresholdCritical:
		return LevelCritical
	case score >= thresholdHigh:
		return LevelHigh
	case score >= thresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Score computes the raw additive threat score. Exposed separately so
// threshold boundaries can be tested without re-deriving weights.
func Score(rssi float64, zone int, kind Kind) int {
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		rssi = SignalFloor
	}
	if zone < 0 || zone > 3 {
		zone = 3
	}

	score := 0
	if kind == KindCellular {
		score += scoreCellular
	}

	switch {
	case rssi > -50:
		score += scoreVeryClose
	case rssi > -70:
		score += scoreClose
	}

	switch zone {
	case 0:
		score += scoreZone0
	case 1:
		score += scoreZone1
	}

	return score
}
