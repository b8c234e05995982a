// Package analytics shapes the access log into the admin visitor report:
// filtering, stable sorting, pagination and summary breakdowns. All of it
// is pure slice work over rows already fetched for one festival.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/accesslog"
)

// Range is a relative date window anchored at "now". Week and month are
// literal rolling windows (now-7d, now-30d), not calendar boundaries.
type Range string

const (
	RangeAll   Range = "all"
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// ParseRange validates a range string, defaulting to all.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeToday, RangeWeek, RangeMonth:
		return Range(s)
	}
	return RangeAll
}

// Query is one filter pass over the log.
type Query struct {
	// Search matches visitor names by case-insensitive substring.
	Search string
	Range  Range
	// Method narrows to one access method; empty means all.
	Method accesslog.Method
}

// cutoff returns the inclusive lower bound for a range, or ok=false for
// RangeAll.
func cutoff(r Range, now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeMonth:
		return now.Add(-30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// Filter returns the entries matching q, preserving input order. Entries
// exactly at a range cutoff are included. Filter is idempotent: applying
// the same query twice returns the same rows.
func Filter(logs []accesslog.Entry, q Query, now time.Time) []accesslog.Entry {
	search := strings.ToLower(q.Search)
	lower, bounded := cutoff(q.Range, now)

	out := make([]accesslog.Entry, 0, len(logs))
	for _, e := range logs {
		if search != "" && !strings.Contains(strings.ToLower(e.VisitorName), search) {
			continue
		}
		if bounded && e.AccessedAt.Before(lower) {
			continue
		}
		if q.Method != "" && e.AccessMethod != q.Method {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Column names a sortable log column.
type Column string

const (
	ColumnVisitorName  Column = "visitor_name"
	ColumnAccessMethod Column = "access_method"
	ColumnPasswordUsed Column = "password_used"
	ColumnAccessedAt   Column = "accessed_at"
	ColumnSessionID    Column = "session_id"
	ColumnUserAgent    Column = "user_agent"
	ColumnIPAddress    Column = "ip_address"
)

// ParseColumn validates a column string, defaulting to accessed_at.
func ParseColumn(s string) Column {
	switch Column(s) {
	case ColumnVisitorName, ColumnAccessMethod, ColumnPasswordUsed,
		ColumnAccessedAt, ColumnSessionID, ColumnUserAgent, ColumnIPAddress:
		return Column(s)
	}
	return ColumnAccessedAt
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection validates a direction string, defaulting to desc.
func ParseDirection(s string) Direction {
	if Direction(s) == Asc {
		return Asc
	}
	return Desc
}

// sortKey extracts the comparable value for a column. null reports a
// missing value on a nullable column.
func sortKey(e accesslog.Entry, col Column) (val string, null bool) {
	switch col {
	case ColumnVisitorName:
		return e.VisitorName, false
	case ColumnAccessMethod:
		return string(e.AccessMethod), false
	case ColumnPasswordUsed:
		return e.PasswordUsed, false
	case ColumnSessionID:
		if e.SessionID == nil {
			return "", true
		}
		return *e.SessionID, false
	case ColumnUserAgent:
		if e.UserAgent == nil {
			return "", true
		}
		return *e.UserAgent, false
	case ColumnIPAddress:
		if e.IPAddress == nil {
			return "", true
		}
		return *e.IPAddress, false
	}
	return "", false
}

// Sort returns a sorted copy of logs. The sort is stable, and missing
// values on nullable columns order last regardless of direction.
func Sort(logs []accesslog.Entry, col Column, dir Direction) []accesslog.Entry {
	out := make([]accesslog.Entry, len(logs))
	copy(out, logs)

	sort.SliceStable(out, func(i, j int) bool {
		if col == ColumnAccessedAt {
			if dir == Asc {
				return out[i].AccessedAt.Before(out[j].AccessedAt)
			}
			return out[j].AccessedAt.Before(out[i].AccessedAt)
		}

		a, aNull := sortKey(out[i], col)
		b, bNull := sortKey(out[j], col)
		if aNull || bNull {
			// Nulls last no matter the direction.
			return !aNull && bNull
		}
		if dir == Asc {
			return a < b
		}
		return b < a
	})
	return out
}

// DefaultPageSize is the admin report's fixed page size.
const DefaultPageSize = 25

// Page is one page of the report.
type Page struct {
	Entries    []accesslog.Entry `json:"entries"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	Total      int               `json:"total"`
}

// Paginate slices logs into 1-indexed pages of pageSize. The requested
// page is clamped to the valid span, so concatenating pages 1..TotalPages
// always reproduces the input with no gaps or repeats.
func Paginate(logs []accesslog.Entry, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(logs)
	totalPages := (total + pageSize - 1) / pageSize

	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Entries:    logs[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}

// VisitorCount pairs a visitor with their visit count.
type VisitorCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary feeds the report's charts: the access-method breakdown bar and
// the top visitors list.
type Summary struct {
	PasswordModal int            `json:"password_modal"`
	DirectLink    int            `json:"direct_link"`
	TopVisitors   []VisitorCount `json:"top_visitors"`
}

// Summarize counts entries per access method and ranks the top n
// visitors by visit count. Ties keep first-seen input order.
func Summarize(logs []accesslog.Entry, n int) Summary {
	if n <= 0 {
		n = 10
	}

	var s Summary
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, e := range logs {
		switch e.AccessMethod {
		case accesslog.MethodPasswordModal:
			s.PasswordModal++
		case accesslog.MethodDirectLink:
			s.DirectLink++
		}
		if _, seen := counts[e.VisitorName]; !seen {
			order = append(order, e.VisitorName)
		}
		counts[e.VisitorName]++
	}

	visitors := make([]VisitorCount, 0, len(order))
	for _, name := range order {
		visitors = append(visitors, VisitorCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(visitors, func(i, j int) bool {
		return visitors[i].Count > visitors[j].Count
	})

	if len(visitors) > n {
		visitors = visitors[:n]
	}
	s.TopVisitors = visitors
	return s
}
