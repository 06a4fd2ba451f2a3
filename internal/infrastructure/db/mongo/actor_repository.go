package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

type actorRepository struct {
	s *LedgerStore
}

func (r *actorRepository) findOne(ctx context.Context, filter bson.M) (*domain.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc actorDoc
	err := r.s.col(collectionActors).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrActorNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *actorRepository) FindByExternalID(ctx context.Context, externalID int64) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"external_id": externalID})
}

func (r *actorRepository) FindByID(ctx context.Context, id int64) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// Create inserts the actor. A duplicate external id means another request
// created the same actor first.
func (r *actorRepository) Create(ctx context.Context, a *domain.Actor) error {
	id, err := r.s.nextID(collectionActors)
	if err != nil {
		return err
	}
	a.ID = id

	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	if _, err := r.s.col(collectionActors).InsertOne(ctx, newActorDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (r *actorRepository) set(ctx context.Context, id int64, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	res, err := r.s.col(collectionActors).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return matchedOne(res, err, domain.ErrActorNotFound)
}

func (r *actorRepository) UpdateProfile(ctx context.Context, id int64, hints domain.ProfileHints) error {
	return r.set(ctx, id, bson.M{
		"username":   hints.Username,
		"first_name": hints.FirstName,
		"last_name":  hints.LastName,
	})
}

func (r *actorRepository) SetEmail(ctx context.Context, id int64, email string) error {
	return r.set(ctx, id, bson.M{"email": email})
}

func (r *actorRepository) SetRole(ctx context.Context, id int64, role domain.Role, status domain.ActorStatus) error {
	return r.set(ctx, id, bson.M{"role": string(role), "status": string(status)})
}

func (r *actorRepository) FindModelProfile(ctx context.Context, actorID int64) (*domain.ModelProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc modelProfileDoc
	err := r.s.col(collectionModelProfiles).FindOne(ctx, bson.M{"_id": actorID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// SaveModelProfile upserts the profile; only the display name changes on an
// existing one.
func (r *actorRepository) SaveModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err := r.s.col(collectionModelProfiles).UpdateOne(ctx,
		bson.M{"_id": actorID},
		bson.M{
			"$set": bson.M{"display_name": displayName},
			"$setOnInsert": bson.M{
				"verification_status": domain.VerificationPending,
				"total_earnings":      toDecimal128(decimal.Zero),
				"created_at":          now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *actorRepository) EnsureModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err := r.s.col(collectionModelProfiles).UpdateOne(ctx,
		bson.M{"_id": actorID},
		bson.M{"$setOnInsert": bson.M{
			"display_name":        displayName,
			"verification_status": domain.VerificationPending,
			"total_earnings":      toDecimal128(decimal.Zero),
			"created_at":          now,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *actorRepository) EnsureClientProfile(ctx context.Context, actorID int64, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err := r.s.col(collectionClientProfiles).UpdateOne(ctx,
		bson.M{"_id": actorID},
		bson.M{"$setOnInsert": bson.M{
			"total_spent": toDecimal128(decimal.Zero),
			"created_at":  now,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *actorRepository) FindClientProfile(ctx context.Context, actorID int64) (*domain.ClientProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc clientProfileDoc
	err := r.s.col(collectionClientProfiles).FindOne(ctx, bson.M{"_id": actorID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// AddModelEarnings is a no-op for actors without a model profile.
func (r *actorRepository) AddModelEarnings(ctx context.Context, actorID int64, amount decimal.Decimal) error {
	return r.inc(ctx, collectionModelProfiles, actorID, "total_earnings", amount)
}

func (r *actorRepository) AddClientSpend(ctx context.Context, actorID int64, amount decimal.Decimal) error {
	return r.inc(ctx, collectionClientProfiles, actorID, "total_spent", amount)
}

func (r *actorRepository) inc(ctx context.Context, collection string, actorID int64, field string, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err := r.s.col(collection).UpdateOne(ctx,
		bson.M{"_id": actorID},
		bson.M{"$inc": bson.M{field: toDecimal128(amount)}},
	)
	return err
}
