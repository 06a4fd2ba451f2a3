package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// LedgerStore is the durable storage for actors, sessions, escrow, content and
// the admin audit log. All mutations go through WithinTx.
type LedgerStore interface {
	// WithinTx runs fn in a single atomic transaction. Any error returned by fn
	// rolls the transaction back. Write conflicts detected by the backend are
	// reported as domain.ErrStateConflict.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn with read-only access to committed data.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Tx exposes the repositories bound to one ledger transaction.
type Tx interface {
	Actors() ActorRepository
	Sessions() SessionRepository
	Content() ContentRepository
	Audit() AuditRepository
}

// ActorRepository persists actors and their role profiles.
type ActorRepository interface {
	// FindByExternalID returns domain.ErrActorNotFound when no actor matches.
	FindByExternalID(ctx context.Context, externalID int64) (*domain.Actor, error)
	FindByID(ctx context.Context, id int64) (*domain.Actor, error)
	// Create inserts a new actor and assigns its ID.
	Create(ctx context.Context, a *domain.Actor) error
	UpdateProfile(ctx context.Context, id int64, hints domain.ProfileHints) error
	SetEmail(ctx context.Context, id int64, email string) error
	SetRole(ctx context.Context, id int64, role domain.Role, status domain.ActorStatus) error

	// FindModelProfile returns domain.ErrNotFound when the actor has none.
	FindModelProfile(ctx context.Context, actorID int64) (*domain.ModelProfile, error)
	// SaveModelProfile creates the profile or updates its display name.
	SaveModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error
	// EnsureModelProfile creates the profile only when it does not exist yet.
	EnsureModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error
	EnsureClientProfile(ctx context.Context, actorID int64, now time.Time) error
	FindClientProfile(ctx context.Context, actorID int64) (*domain.ClientProfile, error)
	AddModelEarnings(ctx context.Context, actorID int64, amount decimal.Decimal) error
	AddClientSpend(ctx context.Context, actorID int64, amount decimal.Decimal) error
}

// EscrowUpdate describes a compare-and-swap on an escrow row.
type EscrowUpdate struct {
	From domain.EscrowStatus
	To   domain.EscrowStatus
	// DisputeReason replaces the stored reason when non-empty.
	DisputeReason string
	// ReleasedAt is stored when non-nil.
	ReleasedAt *time.Time
}

// SessionRepository persists sessions together with their escrow accounts.
type SessionRepository interface {
	// Create inserts the session and its escrow account. Both IDs are assigned
	// and e.SessionID is set to the new session's ID.
	Create(ctx context.Context, s *domain.Session, e *domain.EscrowAccount) error
	// FindByRef returns domain.ErrSessionNotFound when the ref is unknown.
	// Inside WithinTx the row is locked for the rest of the transaction where
	// the backend supports it.
	FindByRef(ctx context.Context, ref string) (*domain.Session, error)
	// UpdateStatus moves the session from one status to another only if it is
	// still in from. Returns domain.ErrConcurrentUpdate otherwise.
	UpdateStatus(ctx context.Context, id int64, from, to domain.SessionStatus, at time.Time) error
	ListByActor(ctx context.Context, actorID int64, limit int) ([]*domain.Session, error)

	// FindEscrow returns domain.ErrEscrowNotFound when the session has none.
	FindEscrow(ctx context.Context, sessionID int64) (*domain.EscrowAccount, error)
	// UpdateEscrow applies u only if the escrow is still in u.From.
	// Returns domain.ErrConcurrentUpdate otherwise.
	UpdateEscrow(ctx context.Context, escrowID int64, u EscrowUpdate) error
}

// ContentRepository persists the content catalog and its purchases.
type ContentRepository interface {
	// Create inserts the item and assigns the next insertion-ordered ID.
	Create(ctx context.Context, c *domain.DigitalContent) error
	// FindByID returns domain.ErrContentNotFound when the item is unknown.
	FindByID(ctx context.Context, id int64) (*domain.DigitalContent, error)
	// ListActive returns active items by ascending ID; limit <= 0 means all.
	ListActive(ctx context.Context, limit int) ([]*domain.DigitalContent, error)
	// ListByModel returns every item of a model, inactive included, by ascending ID.
	ListByModel(ctx context.Context, modelID int64) ([]*domain.DigitalContent, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPrice(ctx context.Context, id int64, price decimal.Decimal) error
	// RecordSale atomically adds one sale and amount of revenue to the item.
	RecordSale(ctx context.Context, id int64, amount decimal.Decimal) error
	InsertPurchase(ctx context.Context, p *domain.ContentPurchase) error
	// FindPurchase returns domain.ErrPurchaseNotFound when the id is unknown.
	FindPurchase(ctx context.Context, id int64) (*domain.ContentPurchase, error)
	ListPurchases(ctx context.Context, contentID int64) ([]*domain.ContentPurchase, error)
}

// AuditRepository is the append-only admin audit log. It is only reachable
// through a Tx so a record always commits with the action it documents.
type AuditRepository interface {
	Record(ctx context.Context, a *domain.AdminAction) error
	// List returns the most recent actions first.
	List(ctx context.Context, limit int) ([]*domain.AdminAction, error)
}
