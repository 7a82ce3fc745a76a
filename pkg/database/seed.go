package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/school"
	"uniform-studio/internal/domain/system"
	"uniform-studio/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	SchoolEmail    string
	SchoolPassword string
	SchoolName     string
	WalletCredit   int64
	ServiceRate    string
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		SchoolEmail:    "school@uniform.dev",
		SchoolPassword: "School@123!",
		SchoolName:     "Demo High School",
		WalletCredit:   5_000_000,
		ServiceRate:    "0.025",
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	School     school.School
	Requests   []design.DesignRequest
	Deliveries int
	Messages   int
}

// SeedDevelopment creates a demo school with a request in each interesting state:
// one awaiting quotation selection, one in progress with two deliveries, and one
// with its quota used up.
func SeedDevelopment(ctx context.Context, db *gorm.DB, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	log.Println("Starting database seeding...")

	result := &SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc, err := seedSchool(tx, cfg)
		if err != nil {
			return err
		}
		result.School = sc

		if err := tx.Save(&system.BusinessConfig{Key: system.KeyServiceRate, Value: cfg.ServiceRate, UpdatedAt: time.Now()}).Error; err != nil {
			return fmt.Errorf("seed service rate: %w", err)
		}

		pending, err := seedRequest(tx, sc.ID, "Winter uniform", design.StatusPending, 0)
		if err != nil {
			return err
		}
		if _, err := seedQuotation(tx, pending.ID, "Ana Designer", 1_200_000, 2, 60_000); err != nil {
			return err
		}
		if _, err := seedQuotation(tx, pending.ID, "Bao Studio", 900_000, 1, 80_000); err != nil {
			return err
		}

		active, err := seedRequest(tx, sc.ID, "Summer uniform", design.StatusProcessing, 2)
		if err != nil {
			return err
		}
		if err := seedSelected(tx, active, "Ana Designer", 1_000_000, 50_000); err != nil {
			return err
		}
		for v := 1; v <= 2; v++ {
			if err := seedDelivery(tx, active.ID, v); err != nil {
				return err
			}
			result.Deliveries++
		}
		n, err := seedMessages(tx, active.ID, sc)
		if err != nil {
			return err
		}
		result.Messages = n

		exhausted, err := seedRequest(tx, sc.ID, "Sports kit", design.StatusProcessing, 0)
		if err != nil {
			return err
		}
		if err := seedSelected(tx, exhausted, "Bao Studio", 700_000, 40_000); err != nil {
			return err
		}
		if err := seedDelivery(tx, exhausted.ID, 1); err != nil {
			return err
		}
		result.Deliveries++

		result.Requests = []design.DesignRequest{pending, active, exhausted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cfg.WalletCredit > 0 {
		if err := repository.NewWalletRepository(db).Credit(ctx, result.School.ID, cfg.WalletCredit); err != nil {
			return nil, fmt.Errorf("seed wallet: %w", err)
		}
	}

	log.Printf("Seeded school %s with %d requests", result.School.Email, len(result.Requests))
	return result, nil
}

func seedSchool(tx *gorm.DB, cfg *SeedConfig) (school.School, error) {
	email := strings.ToLower(cfg.SchoolEmail)
	var existing school.School
	if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
		return school.School{}, fmt.Errorf("school %s already seeded", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SchoolPassword), bcrypt.DefaultCost)
	if err != nil {
		return school.School{}, fmt.Errorf("hash password: %w", err)
	}
	sc := school.School{
		ID:           uuid.New(),
		Email:        email,
		Name:         cfg.SchoolName,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := tx.Create(&sc).Error; err != nil {
		return school.School{}, fmt.Errorf("seed school: %w", err)
	}
	return sc, nil
}

func seedRequest(tx *gorm.DB, schoolID uuid.UUID, name string, status design.Status, quota design.RevisionQuota) (design.DesignRequest, error) {
	req := design.DesignRequest{
		ID:           uuid.New(),
		SchoolID:     schoolID,
		Name:         name,
		Status:       status,
		RevisionTime: quota,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Items: []design.DesignItem{
			{ID: uuid.New(), Type: "shirt", Category: "top", Color: "white"},
			{ID: uuid.New(), Type: "trousers", Category: "bottom", Color: "navy"},
		},
	}
	if err := tx.Create(&req).Error; err != nil {
		return design.DesignRequest{}, fmt.Errorf("seed request %s: %w", name, err)
	}
	return req, nil
}

func seedQuotation(tx *gorm.DB, requestID uuid.UUID, designer string, price int64, revisions design.RevisionQuota, extra int64) (design.DesignQuotation, error) {
	q := design.DesignQuotation{
		ID:                 uuid.New(),
		DesignRequestID:    requestID,
		DesignerID:         uuid.New(),
		DesignerName:       designer,
		DesignerEmail:      strings.ToLower(strings.ReplaceAll(designer, " ", ".")) + "@designers.dev",
		Price:              price,
		RevisionTime:       revisions,
		ExtraRevisionPrice: extra,
		DeliveryWithIn:     14,
		Status:             design.StatusPending,
		CreatedAt:          time.Now(),
	}
	if err := tx.Create(&q).Error; err != nil {
		return design.DesignQuotation{}, fmt.Errorf("seed quotation: %w", err)
	}
	return q, nil
}

func seedSelected(tx *gorm.DB, req design.DesignRequest, designer string, price, extra int64) error {
	q, err := seedQuotation(tx, req.ID, designer, price, 2, extra)
	if err != nil {
		return err
	}
	if err := tx.Model(&q).Update("status", design.StatusSelected).Error; err != nil {
		return err
	}
	return tx.Model(&design.DesignRequest{}).Where("id = ?", req.ID).
		Update("final_design_quotation_id", q.ID).Error
}

func seedDelivery(tx *gorm.DB, requestID uuid.UUID, version int) error {
	d := design.Delivery{
		ID:              uuid.New(),
		DesignRequestID: requestID,
		Name:            fmt.Sprintf("Delivery v%d", version),
		Version:         version,
		SubmitDate:      time.Now().Add(-time.Duration(3-version) * 24 * time.Hour),
		IsRevision:      version > 1,
	}
	if err := tx.Create(&d).Error; err != nil {
		return fmt.Errorf("seed delivery: %w", err)
	}
	return nil
}

func seedMessages(tx *gorm.DB, roomID uuid.UUID, sc school.School) (int, error) {
	lines := []struct {
		email, user, text string
	}{
		{"ana.designer@designers.dev", "Ana Designer", "First draft is up, let me know what you think."},
		{sc.Email, sc.Name, "Looks great. Could the collar be a bit darker?"},
		{"ana.designer@designers.dev", "Ana Designer", "Sure, v2 is uploaded."},
	}

	start := time.Now().Add(-time.Hour)
	var last chat.Message
	for i, l := range lines {
		last = chat.Message{
			ID:          uuid.New(),
			RoomID:      roomID,
			Seq:         int64(i + 1),
			Text:        sql.NullString{String: l.text, Valid: true},
			SenderEmail: l.email,
			User:        l.user,
			CreatedAt:   start.Add(time.Duration(i) * time.Minute),
			Read:        l.email == sc.Email,
		}
		if err := tx.Create(&last).Error; err != nil {
			return 0, fmt.Errorf("seed message: %w", err)
		}
	}

	room := chat.ChatRoom{ID: roomID, LastMessage: last.Summary(), LastSequence: last.Seq, UpdatedAt: last.CreatedAt}
	if err := tx.Create(&room).Error; err != nil {
		return 0, fmt.Errorf("seed room: %w", err)
	}
	return len(lines), nil
}
