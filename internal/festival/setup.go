package festival

import (
	"log"

	"github.com/FestiveLedger/FL-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "festival"); err != nil {
		log.Fatal("Failed to ensure schema festival: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(&Festival{}); err != nil {
		log.Fatal("Failed to auto-migrate festival tables: ", err)
	}
}
