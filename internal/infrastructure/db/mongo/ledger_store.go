package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	codeWriteConflict         = 112
)

// compile-time interface check
var _ ports.LedgerStore = (*LedgerStore)(nil)

// LedgerStore implements ports.LedgerStore on MongoDB multi-document
// transactions. Numeric ids come from a counters collection.
type LedgerStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewLedgerStore wraps an already connected client. timeout bounds every
// single database call.
func NewLedgerStore(client *mongo.Client, db *mongo.Database, timeout time.Duration) *LedgerStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &LedgerStore{client: client, db: db, timeout: timeout}
}

// WithinTx runs fn inside a snapshot transaction. The transaction is aborted
// when fn fails; write conflicts are reported as domain.ErrConcurrentUpdate.
func (s *LedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return classify(fmt.Errorf("start session: %w", err))
	}
	defer sess.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(txOpts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(sc, &tx{store: s}); err != nil {
			abortCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			_ = sess.AbortTransaction(abortCtx)
			return err
		}
		return sess.CommitTransaction(sc)
	})
	return classify(err)
}

// View runs fn without a transaction; each read sees committed data.
func (s *LedgerStore) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return classify(fn(ctx, &tx{store: s}))
}

func (s *LedgerStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *LedgerStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes of every collection.
func (s *LedgerStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collectionActors: {
			{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: unique},
		},
		collectionSessions: {
			{Keys: bson.D{{Key: "session_ref", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "model_id", Value: 1}, {Key: "_id", Value: -1}}},
		},
		collectionEscrows: {
			{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: unique},
		},
		collectionContent: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "model_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
		collectionPurchases: {
			{Keys: bson.D{{Key: "content_id", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes %s: %w", name, err)
		}
	}
	return nil
}

// nextID allocates the next id of a collection. Allocation happens outside the
// surrounding transaction so concurrent inserts do not conflict on the
// counter; a rolled back insert leaves a gap.
func (s *LedgerStore) nextID(collection string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collectionCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", collection, err)
	}
	return counter.Seq, nil
}

// classify maps driver failures onto the domain error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(labelTransientTransaction) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeWriteConflict) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

type tx struct {
	store *LedgerStore
}

func (t *tx) Actors() ports.ActorRepository     { return &actorRepository{t.store} }
func (t *tx) Sessions() ports.SessionRepository { return &sessionRepository{t.store} }
func (t *tx) Content() ports.ContentRepository  { return &contentRepository{t.store} }
func (t *tx) Audit() ports.AuditRepository      { return &auditRepository{t.store} }

func (s *LedgerStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// matchedOne turns an update that matched no document into err.
func matchedOne(res *mongo.UpdateResult, err error, notMatched error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notMatched
	}
	return nil
}
