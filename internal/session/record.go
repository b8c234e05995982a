// Package session is the client-held proof-of-authentication cache.
//
// A record is valid for one calendar day and one credential version: the
// rotation timestamp doubles as the version token, so rotating a secret
// invalidates every outstanding record with no server-side session table
// and no logout protocol. The daily expiry bounds exposure when the
// credential never changes.
package session

import "time"

// RecordVersion is the stored schema version. Records with any other
// version are discarded as absent rather than trusted.
const RecordVersion = 1

// Record is one cached authentication proof for a (festival, gate kind)
// pair.
type Record struct {
	V             int    `json:"v"`
	Authenticated bool   `json:"authenticated"`
	Date          string `json:"date"`
	Token         string `json:"token"`
	VisitorName   string `json:"visitor_name,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
}

// Today formats a wall-clock time as the record date.
func Today(now time.Time) string {
	return now.Format("2006-01-02")
}

// Token formats a rotation timestamp as the record version token.
func Token(rotatedAt time.Time) string {
	return rotatedAt.UTC().Format(time.RFC3339Nano)
}

// Valid reports whether the record still proves current authorization:
// issued today AND matching the current rotation token. Either condition
// failing forces re-authentication.
func (r Record) Valid(rotatedAt time.Time, today string) bool {
	return r.V == RecordVersion &&
		r.Authenticated &&
		r.Date == today &&
		r.Token == Token(rotatedAt)
}

// New builds an authenticated record for the given rotation token and day.
func New(rotatedAt, now time.Time) Record {
	return Record{
		V:             RecordVersion,
		Authenticated: true,
		Date:          Today(now),
		Token:         Token(rotatedAt),
	}
}
