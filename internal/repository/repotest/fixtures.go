package repotest

import (
	"testing"
	"time"

	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/school"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateSchool(t testing.TB, db *gorm.DB, email string) school.School {
	t.Helper()
	s := school.School{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test School",
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create school: %v", err)
	}
	return s
}

// RequestFixture describes a design request to insert. A non-zero ExtraRevisionPrice
// also inserts a selected quotation and links it as final.
type RequestFixture struct {
	SchoolID           uuid.UUID
	Status             design.Status
	RevisionTime       design.RevisionQuota
	QuotationPrice     int64
	ExtraRevisionPrice int64
	Selected           bool
}

func CreateRequest(t testing.TB, db *gorm.DB, f RequestFixture) (design.DesignRequest, design.DesignQuotation) {
	t.Helper()
	if f.Status == "" {
		f.Status = design.StatusProcessing
	}
	req := design.DesignRequest{
		ID:           uuid.New(),
		SchoolID:     f.SchoolID,
		Name:         "Summer uniform",
		Status:       f.Status,
		RevisionTime: f.RevisionTime,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&req).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}

	q := design.DesignQuotation{
		ID:                 uuid.New(),
		DesignRequestID:    req.ID,
		DesignerID:         uuid.New(),
		DesignerName:       "Designer",
		DesignerEmail:      "designer@example.com",
		Price:              f.QuotationPrice,
		RevisionTime:       2,
		ExtraRevisionPrice: f.ExtraRevisionPrice,
		DeliveryWithIn:     14,
		Status:             design.StatusPending,
		CreatedAt:          time.Now(),
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create quotation: %v", err)
	}
	if f.Selected {
		err := db.Model(&design.DesignRequest{}).
			Where("id = ?", req.ID).
			Update("final_design_quotation_id", q.ID).Error
		if err != nil {
			t.Fatalf("link quotation: %v", err)
		}
		req.FinalDesignQuotationID = uuid.NullUUID{UUID: q.ID, Valid: true}
	}
	return req, q
}

func CreateDelivery(t testing.TB, db *gorm.DB, requestID uuid.UUID, version int) design.Delivery {
	t.Helper()
	d := design.Delivery{
		ID:              uuid.New(),
		DesignRequestID: requestID,
		Name:            "Delivery",
		Version:         version,
		SubmitDate:      time.Now(),
		IsRevision:      version > 1,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	return d
}
