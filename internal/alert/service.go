package alert

import (
	"context"

	"github.com/google/uuid"

	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/threat"
)

// Service provides alert persistence and review operations.
type Service struct {
	repo Repository
}

// NewService creates a new alert service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create assigns an identifier and appends the alert. The caller is
// responsible for having upserted the referenced device first.
func (s *Service) Create(ctx context.Context, a *Alert) (*Alert, error) {
	a.ID = "alr_" + uuid.New().String()[:22]
	a.Mac = MaskMac(a.Mac)
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get retrieves an alert by id.
func (s *Service) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	a, err := s.repo.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	result := ToAPIAlert(a)
	return &result, nil
}

// List retrieves alerts, newest first.
func (s *Service) List(ctx context.Context, limit int, deviceID string, level threat.Level) (*models.PagedAlerts, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit, DeviceID: deviceID, Level: level})
	if err != nil {
		return nil, err
	}

	items := make([]models.Alert, 0, len(result.Items))
	for _, a := range result.Items {
		items = append(items, ToAPIAlert(a))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedAlerts{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Review updates the reviewed/falsePositive flags.
func (s *Service) Review(ctx context.Context, alertID string, input *models.AlertReviewRequest) (*models.Alert, error) {
	a, err := s.repo.Review(ctx, alertID, ReviewUpdate{
		Reviewed:      input.Reviewed,
		FalsePositive: input.FalsePositive,
	})
	if err != nil {
		return nil, err
	}
	result := ToAPIAlert(a)
	return &result, nil
}

// Delete removes an alert row.
func (s *Service) Delete(ctx context.Context, alertID string) error {
	return s.repo.Delete(ctx, alertID)
}

// ToAPIAlert converts a domain Alert to an API Alert.
func ToAPIAlert(a *Alert) models.Alert {
	return models.Alert{
		ID:            a.ID,
		DeviceID:      a.DeviceID,
		Timestamp:     models.Timestamp(a.Timestamp),
		ThreatLevel:   string(a.ThreatLevel),
		DetectionKind: string(a.DetectionKind),
		Rssi:          a.Rssi,
		Mac:           a.Mac,
		CellularPeak:  a.CellularPeak,
		Metadata:      a.Metadata,
		Reviewed:      a.Reviewed,
		FalsePositive: a.FalsePositive,
	}
}
