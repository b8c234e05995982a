package accesslog

import (
	"time"

	"github.com/google/uuid"
)

// Method is how a visitor reached the festival page.
type Method string

const (
	MethodPasswordModal Method = "password_modal"
	MethodDirectLink    Method = "direct_link"
)

// Valid reports whether m is one of the known access methods.
func (m Method) Valid() bool {
	return m == MethodPasswordModal || m == MethodDirectLink
}

// Entry is one successful viewer authentication. Append-only: entries are
// never mutated or deleted by the normal flow.
type Entry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	FestivalID   uuid.UUID `gorm:"type:uuid;not null;index" json:"festival_id"`
	VisitorName  string    `gorm:"not null" json:"visitor_name"` // normalized: trimmed, case-folded, hyphenated
	AccessMethod Method    `gorm:"type:varchar(20);not null" json:"access_method"`
	PasswordUsed string    `json:"password_used"`
	AccessedAt   time.Time `gorm:"index;default:CURRENT_TIMESTAMP" json:"accessed_at"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	SessionID    *string   `json:"session_id,omitempty"`
}

func (Entry) TableName() string { return "audit.access_logs" }

// VisitorStats is the per-festival aggregate, recomputed transactionally
// alongside every Entry insert. unique_visitors always equals the count
// of distinct normalized names in the log; total_visits the row count.
type VisitorStats struct {
	FestivalID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"festival_id"`
	UniqueVisitors  int64      `gorm:"not null;default:0" json:"unique_visitors"`
	TotalVisits     int64      `gorm:"not null;default:0" json:"total_visits"`
	LastVisitorName string     `json:"last_visitor_name"`
	LastVisitAt     *time.Time `json:"last_visit_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (VisitorStats) TableName() string { return "audit.visitor_stats" }
