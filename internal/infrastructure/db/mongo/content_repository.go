package mongo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

type contentRepository struct {
	s *LedgerStore
}

func (r *contentRepository) Create(ctx context.Context, c *domain.DigitalContent) error {
	id, err := r.s.nextID(collectionContent)
	if err != nil {
		return err
	}
	c.ID = id

	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err = r.s.col(collectionContent).InsertOne(ctx, newContentDoc(c))
	return err
}

func (r *contentRepository) FindByID(ctx context.Context, id int64) (*domain.DigitalContent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc contentDoc
	err := r.s.col(collectionContent).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *contentRepository) list(ctx context.Context, filter bson.M, limit int) ([]*domain.DigitalContent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.s.col(collectionContent).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []contentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.DigitalContent, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *contentRepository) ListActive(ctx context.Context, limit int) ([]*domain.DigitalContent, error) {
	return r.list(ctx, bson.M{"is_active": true}, limit)
}

func (r *contentRepository) ListByModel(ctx context.Context, modelID int64) ([]*domain.DigitalContent, error) {
	return r.list(ctx, bson.M{"model_id": modelID}, 0)
}

func (r *contentRepository) update(ctx context.Context, id int64, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	res, err := r.s.col(collectionContent).UpdateOne(ctx, bson.M{"_id": id}, update)
	return matchedOne(res, err, domain.ErrContentNotFound)
}

func (r *contentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"is_active": active}})
}

func (r *contentRepository) SetPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"price": toDecimal128(price)}})
}

// RecordSale bumps both counters with one $inc so they never diverge.
func (r *contentRepository) RecordSale(ctx context.Context, id int64, amount decimal.Decimal) error {
	return r.update(ctx, id, bson.M{"$inc": bson.M{
		"total_sales":   int64(1),
		"total_revenue": toDecimal128(amount),
	}})
}

func (r *contentRepository) InsertPurchase(ctx context.Context, p *domain.ContentPurchase) error {
	id, err := r.s.nextID(collectionPurchases)
	if err != nil {
		return err
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	_, err = r.s.col(collectionPurchases).InsertOne(ctx, purchaseDoc{
		ID:          p.ID,
		ContentID:   p.ContentID,
		ClientID:    p.ClientID,
		PricePaid:   toDecimal128(p.PricePaid),
		PurchasedAt: p.PurchasedAt,
	})
	return err
}

func (r *contentRepository) FindPurchase(ctx context.Context, id int64) (*domain.ContentPurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	var doc purchaseDoc
	err := r.s.col(collectionPurchases).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *contentRepository) ListPurchases(ctx context.Context, contentID int64) ([]*domain.ContentPurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.s.timeout)
	defer cancel()

	cursor, err := r.s.col(collectionPurchases).Find(ctx,
		bson.M{"content_id": contentID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []purchaseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.ContentPurchase, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
