package accesslog

import (
	"context"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recorder appends audit entries and keeps the per-festival aggregate in
// step. Record is the one place in the system that needs a true
// concurrency guarantee: append and aggregate refresh run in a single
// transaction, serialized per festival, so simultaneous visits can never
// under-count unique visitors or lose a total-visits update.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends e and recomputes the festival's VisitorStats in the same
// transaction. There is no dedup key: a retried call double-counts, which
// is accepted.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.AccessedAt.IsZero() {
		e.AccessedAt = time.Now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent visits to the same festival for the
		// duration of the transaction.
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, e.FestivalID.String()).Error; err != nil {
			return err
		}

		if err := tx.Create(e).Error; err != nil {
			return err
		}

		var total, unique int64
		if err := tx.Model(&Entry{}).
			Where("festival_id = ?", e.FestivalID).
			Count(&total).Error; err != nil {
			return err
		}
		if err := tx.Model(&Entry{}).
			Where("festival_id = ?", e.FestivalID).
			Distinct("visitor_name").
			Count(&unique).Error; err != nil {
			return err
		}

		stats := VisitorStats{
			FestivalID:      e.FestivalID,
			UniqueVisitors:  unique,
			TotalVisits:     total,
			LastVisitorName: e.VisitorName,
			LastVisitAt:     &e.AccessedAt,
			UpdatedAt:       time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "festival_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"unique_visitors", "total_visits", "last_visitor_name", "last_visit_at", "updated_at",
			}),
		}).Create(&stats).Error
	})
}

// Stats returns the aggregate row for one festival. A festival with no
// visits yet gets a zero-valued row rather than an error.
func (r *Recorder) Stats(ctx context.Context, festivalID uuid.UUID) (VisitorStats, error) {
	var stats VisitorStats
	err := r.db.WithContext(ctx).First(&stats, "festival_id = ?", festivalID).Error
	if err == gorm.ErrRecordNotFound {
		return VisitorStats{FestivalID: festivalID}, nil
	}
	return stats, err
}

// Entries returns every entry for one festival, newest first.
func (r *Recorder) Entries(ctx context.Context, festivalID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("festival_id = ?", festivalID).
		Order("accessed_at DESC").
		Find(&entries).Error
	return entries, err
}

// instrument bumps the append counter for both outcomes.
func instrument(err error) error {
	if err != nil {
		metrics.AccessLogAppendsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.AccessLogAppendsTotal.WithLabelValues("ok").Inc()
	return nil
}
