package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

type sessionRepository struct {
	s *LedgerStore
}

// Create inserts the session and its escrow account. Both writes belong to
// the caller's transaction.
func (r *sessionRepository) Create(ctx context.Context, sess *domain.Session, e *domain.EscrowAccount) error {
	sessionID, err := r.s.nextID(collectionSessions)
	if err != nil {
		return err
	}
	escrowID, err := r.s.nextID(collectionEscrows)
	if err != nil {
		return err
	}
	sess.ID = sessionID
	e.ID = escrowID
	e.SessionID = sessionID

	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	if _, err := r.s.col(collectionSessions).InsertOne(ctx, newSessionDoc(sess)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConcurrentUpdate
		}
		return err
	}
	if _, err := r.s.col(collectionEscrows).InsertOne(ctx, newEscrowDoc(e)); err != nil {
		return err
	}
	return nil
}

func (r *sessionRepository) FindByRef(ctx context.Context, ref string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc sessionDoc
	err := r.s.col(collectionSessions).FindOne(ctx, bson.M{"session_ref": ref}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// UpdateStatus is a compare-and-swap on the status field.
func (r *sessionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.SessionStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	set := bson.M{"status": string(to)}
	switch to {
	case domain.SessionActive:
		set["actual_start"] = at
	case domain.SessionCompleted:
		set["ended_at"] = at
	case domain.SessionPending, domain.SessionDisputed:
	}

	res, err := r.s.col(collectionSessions).UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": set},
	)
	return matchedOne(res, err, domain.ErrConcurrentUpdate)
}

func (r *sessionRepository) ListByActor(ctx context.Context, actorID int64, limit int) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"client_id": actorID},
		bson.M{"model_id": actorID},
	}}

	cursor, err := r.s.col(collectionSessions).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domain.Session, 0)
	for cursor.Next(ctx) {
		var doc sessionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

func (r *sessionRepository) FindEscrow(ctx context.Context, sessionID int64) (*domain.EscrowAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc escrowDoc
	err := r.s.col(collectionEscrows).FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEscrowNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// UpdateEscrow is a compare-and-swap on the escrow status.
func (r *sessionRepository) UpdateEscrow(ctx context.Context, escrowID int64, u ports.EscrowUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	set := bson.M{"status": string(u.To)}
	if u.DisputeReason != "" {
		set["dispute_reason"] = u.DisputeReason
	}
	if u.ReleasedAt != nil {
		set["released_at"] = *u.ReleasedAt
	}

	res, err := r.s.col(collectionEscrows).UpdateOne(ctx,
		bson.M{"_id": escrowID, "status": string(u.From)},
		bson.M{"$set": set},
	)
	return matchedOne(res, err, domain.ErrConcurrentUpdate)
}
