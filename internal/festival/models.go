package festival

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind selects which of a festival's two credentials an operation targets.
// Each kind has its own secret, rotation timestamp and session namespace.
type Kind string

const (
	KindViewer Kind = "viewer"
	KindAdmin  Kind = "admin"
)

var (
	// ErrNotFound means the public code matches no festival. Fatal to the
	// calling page.
	ErrNotFound = errors.New("festival not found")
	// ErrBadSecret is the generic verification failure. It never says
	// which field was wrong.
	ErrBadSecret = errors.New("verification failed")
	// ErrUnknownKind means the gate kind was neither viewer nor admin.
	ErrUnknownKind = errors.New("unknown credential kind")
)

// Festival is one independently configured festival instance, identified
// by a public, human-shareable code. The two password columns are the
// shared secrets; the matching *_updated_at column is the sole version
// marker and changes if and only if the secret changes.
type Festival struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Code             string    `gorm:"uniqueIndex;not null" json:"code"`
	EventName        string    `gorm:"not null" json:"event_name"`
	Organiser        string    `json:"organiser,omitempty"`
	Location         string    `json:"location,omitempty"`
	EventStartDate   *string   `json:"event_start_date,omitempty"`
	EventEndDate     *string   `json:"event_end_date,omitempty"`
	RequiresPassword bool      `gorm:"not null;default:false" json:"requires_password"`

	UserPassword           string     `json:"-"`
	UserPasswordUpdatedAt  *time.Time `json:"-"`
	AdminPassword          string     `json:"-"`
	AdminPasswordUpdatedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Festival) TableName() string { return "festival.festivals" }

// Credential is what a gate needs to decide and record authorization:
// the stored secret, its rotation timestamp (the session version token)
// and the tenant-wide password flag.
type Credential struct {
	FestivalID       uuid.UUID `json:"festival_id"`
	Secret           string    `json:"secret"`
	RotatedAt        time.Time `json:"rotated_at"`
	RequiresPassword bool      `json:"requires_password"`
}

// Info is the non-sensitive festival summary shown before authentication
// succeeds, so an operator can confirm they are unlocking the right tenant.
type Info struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	EventName        string    `json:"event_name"`
	Organiser        string    `json:"organiser,omitempty"`
	Location         string    `json:"location,omitempty"`
	EventStartDate   *string   `json:"event_start_date,omitempty"`
	EventEndDate     *string   `json:"event_end_date,omitempty"`
	RequiresPassword bool      `json:"requires_password"`
}

// credential extracts the credential of the given kind. A credential that
// has never been rotated falls back to the festival's updated_at as its
// version token.
func (f *Festival) credential(kind Kind) (Credential, error) {
	cred := Credential{
		FestivalID:       f.ID,
		RotatedAt:        f.UpdatedAt,
		RequiresPassword: f.RequiresPassword,
	}
	switch kind {
	case KindViewer:
		cred.Secret = f.UserPassword
		if f.UserPasswordUpdatedAt != nil {
			cred.RotatedAt = *f.UserPasswordUpdatedAt
		}
	case KindAdmin:
		cred.Secret = f.AdminPassword
		if f.AdminPasswordUpdatedAt != nil {
			cred.RotatedAt = *f.AdminPasswordUpdatedAt
		}
	default:
		return Credential{}, ErrUnknownKind
	}
	return cred, nil
}

func (f *Festival) info() Info {
	return Info{
		ID:               f.ID,
		Code:             f.Code,
		EventName:        f.EventName,
		Organiser:        f.Organiser,
		Location:         f.Location,
		EventStartDate:   f.EventStartDate,
		EventEndDate:     f.EventEndDate,
		RequiresPassword: f.RequiresPassword,
	}
}

// ParseKind validates a kind string from a route or payload.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindViewer, KindAdmin:
		return Kind(s), nil
	}
	return "", ErrUnknownKind
}
