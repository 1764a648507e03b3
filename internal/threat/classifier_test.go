package threat_test

import (
	"math"
	"testing"

	"github.com/rfsentry/rfsentry/internal/threat"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		rssi      float64
		zone      int
		kind      threat.Kind
		wantScore int
		wantLevel threat.Level
	}{
		{
			name: "cellular very close immediate zone",
			rssi: -45, zone: 0, kind: threat.KindCellular,
			wantScore: 90, wantLevel: threat.LevelCritical,
		},
		{
			name: "wifi moderately close near zone",
			rssi: -68, zone: 1, kind: threat.KindWifi,
			wantScore: 25, wantLevel: threat.LevelLow,
		},
		{
			name: "wifi very close immediate zone",
			rssi: -40, zone: 0, kind: threat.KindWifi,
			wantScore: 50, wantLevel: threat.LevelHigh,
		},
		{
			name: "bluetooth at signal floor extreme zone",
			rssi: -100, zone: 3, kind: threat.KindBluetooth,
			wantScore: 0, wantLevel: threat.LevelLow,
		},
		{
			name: "cellular moderately close near zone",
			rssi: -65, zone: 1, kind: threat.KindCellular,
			wantScore: 65, wantLevel: threat.LevelHigh,
		},
		{
			name: "cellular weak far zone",
			rssi: -90, zone: 2, kind: threat.KindCellular,
			wantScore: 40, wantLevel: threat.LevelMedium,
		},
		{
			name: "boundary -50 is not very close",
			rssi: -50, zone: 3, kind: threat.KindWifi,
			wantScore: 15, wantLevel: threat.LevelLow,
		},
		{
			name: "boundary -70 is not close",
			rssi: -70, zone: 3, kind: threat.KindWifi,
			wantScore: 0, wantLevel: threat.LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := threat.Score(tt.rssi, tt.zone, tt.kind); got != tt.wantScore {
				t.Errorf("Score(%v, %d, %q) = %d, want %d", tt.rssi, tt.zone, tt.kind, got, tt.wantScore)
			}
			if got := threat.Classify(tt.rssi, tt.zone, tt.kind); got != tt.wantLevel {
				t.Errorf("Classify(%v, %d, %q) = %q, want %q", tt.rssi, tt.zone, tt.kind, got, tt.wantLevel)
			}
		})
	}
}

func TestClassify_SanitizesInputs(t *testing.T) {
	// NaN and infinite signal strengths are treated as the -100 floor.
	if got := threat.Classify(math.NaN(), 0, threat.KindWifi); got != threat.LevelLow {
		t.Errorf("Classify(NaN, 0, wifi) = %q, want low", got)
	}
	if got := threat.Score(math.Inf(1), 3, threat.KindWifi); got != 0 {
		t.Errorf("Score(+Inf, 3, wifi) = %d, want 0", got)
	}

	// Out-of-range zones fall back to 3 (lowest confidence).
	if got := threat.Score(-45, 7, threat.KindWifi); got != 30 {
		t.Errorf("Score(-45, 7, wifi) = %d, want 30", got)
	}
	if got := threat.Score(-45, -1, threat.KindWifi); got != 30 {
		t.Errorf("Score(-45, -1, wifi) = %d, want 30", got)
	}
}
