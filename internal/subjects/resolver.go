package subjects

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/models"
	apperrors "github.com/accesskeep/accesskeep/pkg/errors"
)

// Resolver decides whether a subject identifier refers to a real resource.
type Resolver interface {
	Resolve(ctx context.Context, kind Kind, id string) error
}

// Registry resolves subjects against the platform's subject tables, one
// lookup per kind.
type Registry struct {
	db *gorm.DB
}

// NewRegistry constructs a Registry backed by the provided database.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if db == nil {
		return nil, errors.New("subjects: db is required")
	}
	return &Registry{db: db}, nil
}

// Resolve returns nil when the subject exists, an InvalidArgument error when
// the identifier is malformed or unknown.
func (r *Registry) Resolve(ctx context.Context, kind Kind, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ValidateID(id); err != nil {
		return err
	}

	var target any
	switch kind {
	case KindClient:
		target = &models.Client{}
	case KindHunt:
		target = &models.Hunt{}
	case KindCronJob:
		target = &models.CronJob{}
	default:
		return apperrors.NewInvalidArgument("unknown subject kind " + string(kind))
	}

	err := r.db.WithContext(ctx).Take(target, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewInvalidArgument(fmt.Sprintf("%s %s does not exist", kind, id))
	}
	if err != nil {
		return fmt.Errorf("subjects: resolve %s %s: %w", kind, id, err)
	}
	return nil
}
