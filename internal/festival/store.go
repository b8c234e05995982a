package festival

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CredentialStore is the consumed interface of the credential backend.
// Gates depend on this, never on gorm directly, so tests can fake it and
// deployments can swap the HTTP client in for the direct-DB store.
type CredentialStore interface {
	// Credential returns the secret, rotation token and password flag for
	// one gate kind. ErrNotFound for unknown codes.
	Credential(ctx context.Context, code string, kind Kind) (Credential, error)
	// Rotate replaces the secret and bumps its rotation timestamp,
	// implicitly invalidating every outstanding session for that kind.
	Rotate(ctx context.Context, code string, kind Kind, newSecret string) (time.Time, error)
	// Info returns the non-sensitive pre-auth summary.
	Info(ctx context.Context, code string) (Info, error)
}

// Store is the gorm-backed CredentialStore.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) byCode(ctx context.Context, code string) (*Festival, error) {
	var f Festival
	err := s.db.WithContext(ctx).First(&f, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) Credential(ctx context.Context, code string, kind Kind) (Credential, error) {
	f, err := s.byCode(ctx, code)
	if err != nil {
		return Credential{}, err
	}
	return f.credential(kind)
}

func (s *Store) Info(ctx context.Context, code string) (Info, error) {
	f, err := s.byCode(ctx, code)
	if err != nil {
		return Info{}, err
	}
	return f.info(), nil
}

func (s *Store) Rotate(ctx context.Context, code string, kind Kind, newSecret string) (time.Time, error) {
	f, err := s.byCode(ctx, code)
	if err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	updates := map[string]interface{}{}
	switch kind {
	case KindViewer:
		updates["user_password"] = newSecret
		updates["user_password_updated_at"] = now
	case KindAdmin:
		updates["admin_password"] = newSecret
		updates["admin_password_updated_at"] = now
	default:
		return time.Time{}, ErrUnknownKind
	}

	if err := s.db.WithContext(ctx).Model(f).Updates(updates).Error; err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// SetRequiresPassword flips the tenant-wide password wall. Turning it off
// also turns visitor analytics off, which the stats endpoint surfaces.
func (s *Store) SetRequiresPassword(ctx context.Context, code string, required bool) error {
	f, err := s.byCode(ctx, code)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(f).Update("requires_password", required).Error
}
