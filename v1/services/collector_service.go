package services

import (
	"errors"
	"time"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
	"github.com/pwaburton/portal-backend/v1/models"
	"gorm.io/gorm"
)

// CollectorService handles the collector catalog
type CollectorService struct {
	db *gorm.DB
}

// NewCollectorService creates a new collector service
func NewCollectorService(db *gorm.DB) *CollectorService {
	return &CollectorService{db: db}
}

// ListCollectors returns all collectors ordered by prefix and number
func (s *CollectorService) ListCollectors() ([]models.CollectorResponse, error) {
	var collectors []models.Collector
	err := s.db.Order("prefix ASC, number ASC").Find(&collectors).Error
	if err != nil {
		return nil, apierrors.QueryFailedError("collectors.list", err)
	}

	out := make([]models.CollectorResponse, len(collectors))
	for i := range collectors {
		out[i] = collectorResponse(&collectors[i])
	}
	return out, nil
}

// GetCollector retrieves a collector by id
func (s *CollectorService) GetCollector(collectorID string) (*models.CollectorResponse, error) {
	var collector models.Collector
	err := s.db.First(&collector, "id = ?", collectorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("collector")
		}
		return nil, apierrors.QueryFailedError("collectors.get", err)
	}
	resp := collectorResponse(&collector)
	return &resp, nil
}

// UpdateCollector renames or activates/deactivates a collector. Prefix and
// number are immutable once allocated.
func (s *CollectorService) UpdateCollector(collectorID string, req *models.UpdateCollectorRequest) (*models.CollectorResponse, error) {
	var collector models.Collector
	err := s.db.First(&collector, "id = ?", collectorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("collector")
		}
		return nil, apierrors.QueryFailedError("collectors.get", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apierrors.ValidationError("COLLECTOR_NAME_REQUIRED", "collector name is required")
		}
		collector.Name = *req.Name
	}
	if req.Active != nil {
		collector.Active = *req.Active
	}

	if err := s.db.Save(&collector).Error; err != nil {
		return nil, apierrors.QueryFailedError("collectors.update", err)
	}

	resp := collectorResponse(&collector)
	return &resp, nil
}

func collectorResponse(c *models.Collector) models.CollectorResponse {
	return models.CollectorResponse{
		ID:        c.ID,
		Name:      c.Name,
		Prefix:    c.Prefix,
		Number:    c.Number,
		Code:      c.Code(),
		Active:    c.Active,
		ProfileID: c.ProfileID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}
