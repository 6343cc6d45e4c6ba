package repository

import (
	"context"

	"github.com/admitkit/docverify/pkg/models"
)

// Repository interfaces for persisted entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type StaffRepo interface {
	CreateStaff(ctx context.Context, s *models.Staff) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Staff, error)
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
	UpdateStaff(ctx context.Context, s *models.Staff) error
	DeleteStaff(ctx context.Context, id int64) error
}

type EventRepo interface {
	CreateEvent(ctx context.Context, e *models.VerificationEvent) (int64, error)
	ListByEnquiry(ctx context.Context, enquiryID string) ([]models.VerificationEvent, error)
}

// Repository groups the individual repos consumers need.
type Repository struct {
	Staff StaffRepo
	Event EventRepo
}
