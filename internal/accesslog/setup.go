package accesslog

import (
	"log"

	"github.com/FestiveLedger/FL-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "audit"); err != nil {
		log.Fatal("Failed to ensure schema audit: ", err)
	}

	if err := db.DB.AutoMigrate(&Entry{}, &VisitorStats{}); err != nil {
		log.Fatal("Failed to auto-migrate audit tables: ", err)
	}

	// Composite index for the admin report's newest-first per-festival scan.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_access_logs_festival_time
		ON audit.access_logs (festival_id, accessed_at DESC);
	`).Error; err != nil {
		log.Fatal("Failed to create idx_access_logs_festival_time: ", err)
	}

	log.Println("Access log module initialized")
}
