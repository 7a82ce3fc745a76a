package repository

import (
	"fmt"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/domain/school"
	"uniform-studio/internal/domain/system"

	"gorm.io/gorm"
)

// Models lists every table managed by InitSchema, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&school.School{},
		&design.DesignRequest{},
		&design.DesignQuotation{},
		&design.DesignItem{},
		&design.Delivery{},
		&design.DeliveryItem{},
		&design.RevisionRequest{},
		&chat.ChatRoom{},
		&chat.Message{},
		&payment.Order{},
		&payment.Wallet{},
		&payment.WalletTransaction{},
		&system.BusinessConfig{},
	}
}

// InitSchema runs GORM auto-migration and creates the indexes AutoMigrate cannot express.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// At most one final delivery per design request.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_deliveries_one_final
			ON deliveries (design_request_id) WHERE is_final = true;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_messages_room_seq
			ON messages (room_id, seq);`,
	}
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// DropSchema drops every managed table. Used by the reset command.
func DropSchema(db *gorm.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
