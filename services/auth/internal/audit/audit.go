package audit

import (
	"context"
	"errors"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type Recorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// Multi records to each sink in order. The database sink goes first so the
// search index sees the assigned row id.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, entry *models.AuditLog) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
