package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rfsentry/rfsentry/internal/device"
)

func intP(v int) *int { return &v }

func TestQualityFromRssi(t *testing.T) {
	tests := []struct {
		name string
		rssi *int
		want *device.Quality
	}{
		{"strong signal", intP(-55), qualityP(device.QualityExcellent)},
		{"boundary minus sixty", intP(-60), qualityP(device.QualityGood)},
		{"weak signal", intP(-80), qualityP(device.QualityFair)},
		{"very weak signal", intP(-90), qualityP(device.QualityPoor)},
		{"absent reading", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := device.QualityFromRssi(tt.rssi)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("expected %q, got %q", *tt.want, *got)
			}
		})
	}
}

func qualityP(q device.Quality) *device.Quality { return &q }

func TestService_ApplyDetection_FirstContact(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()
	seen := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	d, err := service.ApplyDetection(ctx, "sensor-01", seen)
	if err != nil {
		t.Fatalf("failed to apply detection: %v", err)
	}

	if d.ID != "sensor-01" {
		t.Errorf("expected id sensor-01, got %q", d.ID)
	}
	if d.Name != "sensor-01" {
		t.Errorf("expected name to default to id, got %q", d.Name)
	}
	if !d.Online {
		t.Error("expected device to be online")
	}
	if d.DetectionCount != 1 {
		t.Errorf("expected detection count 1, got %d", d.DetectionCount)
	}
	if !d.LastSeen.Equal(seen) {
		t.Errorf("expected last seen %v, got %v", seen, d.LastSeen)
	}
	if d.BatteryPercent != nil {
		t.Error("expected battery to be absent before any heartbeat")
	}
}

func TestService_ApplyHealth_DerivesQuality(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()

	d, err := service.ApplyHealth(ctx, "sensor-02", time.Now().UTC(), intP(72), intP(-65))
	if err != nil {
		t.Fatalf("failed to apply health: %v", err)
	}

	if d.BatteryPercent == nil || *d.BatteryPercent != 72 {
		t.Errorf("expected battery 72, got %v", d.BatteryPercent)
	}
	if d.SignalQuality == nil || *d.SignalQuality != device.QualityGood {
		t.Errorf("expected good quality at -65 dBm, got %v", d.SignalQuality)
	}
}

func TestService_ApplyHealth_PreservesPriorState(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()

	if _, err := service.ApplyHealth(ctx, "sensor-03", time.Now().UTC(), intP(90), intP(-48)); err != nil {
		t.Fatalf("failed to apply first heartbeat: %v", err)
	}

	d, err := service.ApplyHealth(ctx, "sensor-03", time.Now().UTC(), nil, nil)
	if err != nil {
		t.Fatalf("failed to apply partial heartbeat: %v", err)
	}

	if d.BatteryPercent == nil || *d.BatteryPercent != 90 {
		t.Errorf("expected battery preserved at 90, got %v", d.BatteryPercent)
	}
	if d.SignalQuality == nil || *d.SignalQuality != device.QualityExcellent {
		t.Errorf("expected quality preserved, got %v", d.SignalQuality)
	}
}

func TestService_List_OrdersByLastSeen(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "newer", "newest"} {
		if _, err := service.ApplyDetection(ctx, id, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("failed to seed device %s: %v", id, err)
		}
	}

	result, err := service.List(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(result.Items))
	}
	if result.Items[0].ID != "newest" || result.Items[1].ID != "newer" {
		t.Errorf("expected newest-first ordering, got %q then %q", result.Items[0].ID, result.Items[1].ID)
	}
}

func TestService_Rename(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()

	if _, err := service.ApplyDetection(ctx, "sensor-04", time.Now().UTC()); err != nil {
		t.Fatalf("failed to seed device: %v", err)
	}

	d, err := service.Rename(ctx, "sensor-04", "garage corner")
	if err != nil {
		t.Fatalf("failed to rename: %v", err)
	}
	if d.Name != "garage corner" {
		t.Errorf("expected renamed device, got %q", d.Name)
	}

	if _, err := service.Rename(ctx, "missing", "x"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()

	if _, err := service.ApplyDetection(ctx, "sensor-05", time.Now().UTC()); err != nil {
		t.Fatalf("failed to seed device: %v", err)
	}

	if err := service.Delete(ctx, "sensor-05"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := service.Get(ctx, "sensor-05"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound after delete, got %v", err)
	}
}
