package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

type auditService struct {
	store  ports.LedgerStore
	admins AdminSet
	log    zerolog.Logger
}

// NewAuditService returns an AuditService. Writes to the audit log happen
// only inside the transactions of the audited actions.
func NewAuditService(store ports.LedgerStore, admins AdminSet, log zerolog.Logger) ports.AuditService {
	return &auditService{store: store, admins: admins, log: log}
}

func (s *auditService) ListAdminActions(ctx context.Context, adminID int64, limit int) ([]*domain.AdminAction, error) {
	if !s.admins.Contains(adminID) {
		return nil, domain.ErrNotAdmin
	}
	var actions []*domain.AdminAction
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		var err error
		actions, err = tx.Audit().List(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list admin actions: %w", err)
	}
	s.log.Debug().Int64("admin_id", adminID).Int("count", len(actions)).Msg("admin actions listed")
	return actions, nil
}
