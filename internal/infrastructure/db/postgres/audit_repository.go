package postgres

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

type auditRepository struct {
	t *tx
}

// Record appends an action. A zero TargetActorID is stored as NULL.
func (r *auditRepository) Record(ctx context.Context, a *domain.AdminAction) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	details := a.Details
	if details == nil {
		details = map[string]string{}
	}
	return r.t.q.QueryRow(ctx, `
INSERT INTO admin_actions (admin_id, action_type, target_user_id, target_type, target_id, details, created_at)
VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, $6, $7)
RETURNING id`,
		a.AdminID, a.ActionType, a.TargetActorID, a.TargetType, a.TargetID, details, a.CreatedAt,
	).Scan(&a.ID)
}

func (r *auditRepository) List(ctx context.Context, limit int) ([]*domain.AdminAction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	query := `
SELECT id, admin_id, action_type, COALESCE(target_user_id, 0), target_type, target_id, details, created_at
FROM admin_actions ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AdminAction
	for rows.Next() {
		var a domain.AdminAction
		if err := rows.Scan(&a.ID, &a.AdminID, &a.ActionType, &a.TargetActorID,
			&a.TargetType, &a.TargetID, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
