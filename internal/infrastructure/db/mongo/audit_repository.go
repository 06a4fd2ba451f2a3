package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// auditRepository only inserts and reads; admin_actions is append-only.
type auditRepository struct {
	s *LedgerStore
}

func (r *auditRepository) Record(ctx context.Context, a *domain.AdminAction) error {
	id, err := r.s.nextID(collectionAdminActions)
	if err != nil {
		return err
	}
	a.ID = id

	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err = r.s.col(collectionAdminActions).InsertOne(ctx, adminActionDoc{
		ID:            a.ID,
		AdminID:       a.AdminID,
		ActionType:    a.ActionType,
		TargetActorID: a.TargetActorID,
		TargetType:    a.TargetType,
		TargetID:      a.TargetID,
		Details:       a.Details,
		CreatedAt:     a.CreatedAt,
	})
	return err
}

func (r *auditRepository) List(ctx context.Context, limit int) ([]*domain.AdminAction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.s.col(collectionAdminActions).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []adminActionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.AdminAction, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
