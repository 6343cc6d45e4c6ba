package mock

import (
	"context"

	"github.com/admitkit/docverify/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	StaffRepo *mockStaffRepo
	EventRepo *mockEventRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		StaffRepo: &mockStaffRepo{},
		EventRepo: &mockEventRepo{},
	}
}

type mockStaffRepo struct {
	Stored    *models.Staff
	CreateErr error
}

func (m *mockStaffRepo) CreateStaff(ctx context.Context, s *models.Staff) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.Staff{ID: 1, Name: s.Name, Email: s.Email, PasswordHash: s.PasswordHash}
	return 1, nil
}

func (m *mockStaffRepo) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockStaffRepo) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockStaffRepo) UpdateStaff(ctx context.Context, s *models.Staff) error {
	m.Stored = s
	return nil
}

func (m *mockStaffRepo) DeleteStaff(ctx context.Context, id int64) error {
	if m.Stored != nil && m.Stored.ID == id {
		m.Stored = nil
	}
	return nil
}

type mockEventRepo struct {
	Events    []models.VerificationEvent
	CreateErr error
}

func (m *mockEventRepo) CreateEvent(ctx context.Context, e *models.VerificationEvent) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	id := int64(len(m.Events) + 1)
	cp := *e
	cp.ID = id
	m.Events = append(m.Events, cp)
	return id, nil
}

func (m *mockEventRepo) ListByEnquiry(ctx context.Context, enquiryID string) ([]models.VerificationEvent, error) {
	var out []models.VerificationEvent
	for _, e := range m.Events {
		if e.EnquiryID == enquiryID {
			out = append(out, e)
		}
	}
	return out, nil
}
