// Package memory provides in-process implementations of the storage ports.
// The ledger store serialises transactions behind one mutex and commits by
// swapping in a modified copy of the state, so a failed transaction leaves
// nothing behind.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

var errReadOnly = errors.New("memory: write in read-only transaction")

// compile-time interface check
var _ ports.LedgerStore = (*LedgerStore)(nil)

type state struct {
	nextActor, nextSession, nextEscrow, nextContent, nextPurchase, nextAction int64

	actors         map[int64]domain.Actor
	actorByExt     map[int64]int64
	modelProfiles  map[int64]domain.ModelProfile
	clientProfiles map[int64]domain.ClientProfile

	sessions        map[int64]domain.Session
	sessionByRef    map[string]int64
	escrows         map[int64]domain.EscrowAccount
	escrowBySession map[int64]int64

	content   map[int64]domain.DigitalContent
	purchases []domain.ContentPurchase
	actions   []domain.AdminAction
}

func newState() *state {
	return &state{
		actors:          make(map[int64]domain.Actor),
		actorByExt:      make(map[int64]int64),
		modelProfiles:   make(map[int64]domain.ModelProfile),
		clientProfiles:  make(map[int64]domain.ClientProfile),
		sessions:        make(map[int64]domain.Session),
		sessionByRef:    make(map[string]int64),
		escrows:         make(map[int64]domain.EscrowAccount),
		escrowBySession: make(map[int64]int64),
		content:         make(map[int64]domain.DigitalContent),
	}
}

// clone copies every table. Rows are stored by value and never mutated in
// place, so copying the maps is enough.
func (s *state) clone() *state {
	c := *s
	c.actors = maps.Clone(s.actors)
	c.actorByExt = maps.Clone(s.actorByExt)
	c.modelProfiles = maps.Clone(s.modelProfiles)
	c.clientProfiles = maps.Clone(s.clientProfiles)
	c.sessions = maps.Clone(s.sessions)
	c.sessionByRef = maps.Clone(s.sessionByRef)
	c.escrows = maps.Clone(s.escrows)
	c.escrowBySession = maps.Clone(s.escrowBySession)
	c.content = maps.Clone(s.content)
	c.purchases = slices.Clone(s.purchases)
	c.actions = slices.Clone(s.actions)
	return &c
}

// LedgerStore is an in-memory ports.LedgerStore.
type LedgerStore struct {
	mu sync.RWMutex
	st *state
}

// NewLedgerStore returns an empty store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{st: newState()}
}

func (s *LedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *LedgerStore) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{st: s.st, readOnly: true})
}

func (s *LedgerStore) Ping(context.Context) error { return nil }

func (s *LedgerStore) Close(context.Context) error { return nil }

type tx struct {
	st       *state
	readOnly bool
}

func (t *tx) Actors() ports.ActorRepository     { return actorRepo{t} }
func (t *tx) Sessions() ports.SessionRepository { return sessionRepo{t} }
func (t *tx) Content() ports.ContentRepository  { return contentRepo{t} }
func (t *tx) Audit() ports.AuditRepository      { return auditRepo{t} }

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// ==================== Actors ====================

type actorRepo struct{ t *tx }

func (r actorRepo) FindByExternalID(_ context.Context, externalID int64) (*domain.Actor, error) {
	id, ok := r.t.st.actorByExt[externalID]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	a := r.t.st.actors[id]
	return &a, nil
}

func (r actorRepo) FindByID(_ context.Context, id int64) (*domain.Actor, error) {
	a, ok := r.t.st.actors[id]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	return &a, nil
}

func (r actorRepo) Create(_ context.Context, a *domain.Actor) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, exists := r.t.st.actorByExt[a.ExternalID]; exists {
		return domain.ErrConcurrentUpdate
	}
	r.t.st.nextActor++
	a.ID = r.t.st.nextActor
	r.t.st.actors[a.ID] = *a
	r.t.st.actorByExt[a.ExternalID] = a.ID
	return nil
}

func (r actorRepo) update(id int64, fn func(a *domain.Actor)) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	a, ok := r.t.st.actors[id]
	if !ok {
		return domain.ErrActorNotFound
	}
	fn(&a)
	r.t.st.actors[id] = a
	return nil
}

func (r actorRepo) UpdateProfile(_ context.Context, id int64, hints domain.ProfileHints) error {
	return r.update(id, func(a *domain.Actor) {
		a.Username = hints.Username
		a.FirstName = hints.FirstName
		a.LastName = hints.LastName
	})
}

func (r actorRepo) SetEmail(_ context.Context, id int64, email string) error {
	return r.update(id, func(a *domain.Actor) { a.Email = email })
}

func (r actorRepo) SetRole(_ context.Context, id int64, role domain.Role, status domain.ActorStatus) error {
	return r.update(id, func(a *domain.Actor) {
		a.Role = role
		a.Status = status
	})
}

func (r actorRepo) FindModelProfile(_ context.Context, actorID int64) (*domain.ModelProfile, error) {
	p, ok := r.t.st.modelProfiles[actorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r actorRepo) SaveModelProfile(_ context.Context, actorID int64, displayName string, now time.Time) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	p, ok := r.t.st.modelProfiles[actorID]
	if !ok {
		p = domain.ModelProfile{
			ActorID:            actorID,
			VerificationStatus: domain.VerificationPending,
			TotalEarnings:      decimal.Zero,
			CreatedAt:          now,
		}
	}
	p.DisplayName = displayName
	r.t.st.modelProfiles[actorID] = p
	return nil
}

func (r actorRepo) EnsureModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error {
	if _, ok := r.t.st.modelProfiles[actorID]; ok {
		return nil
	}
	return r.SaveModelProfile(ctx, actorID, displayName, now)
}

func (r actorRepo) EnsureClientProfile(_ context.Context, actorID int64, now time.Time) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, ok := r.t.st.clientProfiles[actorID]; ok {
		return nil
	}
	r.t.st.clientProfiles[actorID] = domain.ClientProfile{
		ActorID:    actorID,
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
	}
	return nil
}

func (r actorRepo) FindClientProfile(_ context.Context, actorID int64) (*domain.ClientProfile, error) {
	p, ok := r.t.st.clientProfiles[actorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r actorRepo) AddModelEarnings(_ context.Context, actorID int64, amount decimal.Decimal) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if p, ok := r.t.st.modelProfiles[actorID]; ok {
		p.TotalEarnings = p.TotalEarnings.Add(amount)
		r.t.st.modelProfiles[actorID] = p
	}
	return nil
}

func (r actorRepo) AddClientSpend(_ context.Context, actorID int64, amount decimal.Decimal) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if p, ok := r.t.st.clientProfiles[actorID]; ok {
		p.TotalSpent = p.TotalSpent.Add(amount)
		r.t.st.clientProfiles[actorID] = p
	}
	return nil
}

// ==================== Sessions ====================

type sessionRepo struct{ t *tx }

func (r sessionRepo) Create(_ context.Context, s *domain.Session, e *domain.EscrowAccount) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, exists := r.t.st.sessionByRef[s.Ref]; exists {
		return domain.ErrConcurrentUpdate
	}
	r.t.st.nextSession++
	s.ID = r.t.st.nextSession
	r.t.st.nextEscrow++
	e.ID = r.t.st.nextEscrow
	e.SessionID = s.ID

	r.t.st.sessions[s.ID] = *s
	r.t.st.sessionByRef[s.Ref] = s.ID
	r.t.st.escrows[e.ID] = *e
	r.t.st.escrowBySession[s.ID] = e.ID
	return nil
}

func (r sessionRepo) FindByRef(_ context.Context, ref string) (*domain.Session, error) {
	id, ok := r.t.st.sessionByRef[ref]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s := r.t.st.sessions[id]
	return &s, nil
}

func (r sessionRepo) UpdateStatus(_ context.Context, id int64, from, to domain.SessionStatus, at time.Time) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	s, ok := r.t.st.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.Status != from {
		return domain.ErrConcurrentUpdate
	}
	s.Status = to
	switch to {
	case domain.SessionActive:
		s.ActualStart = &at
	case domain.SessionCompleted:
		s.EndedAt = &at
	case domain.SessionPending, domain.SessionDisputed:
	}
	r.t.st.sessions[id] = s
	return nil
}

func (r sessionRepo) ListByActor(_ context.Context, actorID int64, limit int) ([]*domain.Session, error) {
	out := make([]*domain.Session, 0)
	for _, s := range r.t.st.sessions {
		if s.ClientID == actorID || s.ModelID == actorID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r sessionRepo) FindEscrow(_ context.Context, sessionID int64) (*domain.EscrowAccount, error) {
	id, ok := r.t.st.escrowBySession[sessionID]
	if !ok {
		return nil, domain.ErrEscrowNotFound
	}
	e := r.t.st.escrows[id]
	return &e, nil
}

func (r sessionRepo) UpdateEscrow(_ context.Context, escrowID int64, u ports.EscrowUpdate) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	e, ok := r.t.st.escrows[escrowID]
	if !ok {
		return domain.ErrEscrowNotFound
	}
	if e.Status != u.From {
		return domain.ErrConcurrentUpdate
	}
	e.Status = u.To
	if u.DisputeReason != "" {
		e.DisputeReason = u.DisputeReason
	}
	if u.ReleasedAt != nil {
		at := *u.ReleasedAt
		e.ReleasedAt = &at
	}
	r.t.st.escrows[escrowID] = e
	return nil
}

// ==================== Content ====================

type contentRepo struct{ t *tx }

func (r contentRepo) Create(_ context.Context, c *domain.DigitalContent) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	r.t.st.nextContent++
	c.ID = r.t.st.nextContent
	r.t.st.content[c.ID] = *c
	return nil
}

func (r contentRepo) FindByID(_ context.Context, id int64) (*domain.DigitalContent, error) {
	c, ok := r.t.st.content[id]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return &c, nil
}

func (r contentRepo) list(match func(c domain.DigitalContent) bool, limit int) []*domain.DigitalContent {
	out := make([]*domain.DigitalContent, 0)
	for _, c := range r.t.st.content {
		if match(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r contentRepo) ListActive(_ context.Context, limit int) ([]*domain.DigitalContent, error) {
	return r.list(func(c domain.DigitalContent) bool { return c.IsActive }, limit), nil
}

func (r contentRepo) ListByModel(_ context.Context, modelID int64) ([]*domain.DigitalContent, error) {
	return r.list(func(c domain.DigitalContent) bool { return c.ModelID == modelID }, 0), nil
}

func (r contentRepo) update(id int64, fn func(c *domain.DigitalContent)) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	c, ok := r.t.st.content[id]
	if !ok {
		return domain.ErrContentNotFound
	}
	fn(&c)
	r.t.st.content[id] = c
	return nil
}

func (r contentRepo) SetActive(_ context.Context, id int64, active bool) error {
	return r.update(id, func(c *domain.DigitalContent) { c.IsActive = active })
}

func (r contentRepo) SetPrice(_ context.Context, id int64, price decimal.Decimal) error {
	return r.update(id, func(c *domain.DigitalContent) { c.Price = price })
}

func (r contentRepo) RecordSale(_ context.Context, id int64, amount decimal.Decimal) error {
	return r.update(id, func(c *domain.DigitalContent) {
		c.TotalSales++
		c.TotalRevenue = c.TotalRevenue.Add(amount)
	})
}

func (r contentRepo) InsertPurchase(_ context.Context, p *domain.ContentPurchase) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	r.t.st.nextPurchase++
	p.ID = r.t.st.nextPurchase
	r.t.st.purchases = append(r.t.st.purchases, *p)
	return nil
}

func (r contentRepo) FindPurchase(_ context.Context, id int64) (*domain.ContentPurchase, error) {
	for _, p := range r.t.st.purchases {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

func (r contentRepo) ListPurchases(_ context.Context, contentID int64) ([]*domain.ContentPurchase, error) {
	out := make([]*domain.ContentPurchase, 0)
	for _, p := range r.t.st.purchases {
		if p.ContentID == contentID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

// ==================== Audit ====================

type auditRepo struct{ t *tx }

func (r auditRepo) Record(_ context.Context, a *domain.AdminAction) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	r.t.st.nextAction++
	a.ID = r.t.st.nextAction
	rec := *a
	rec.Details = maps.Clone(a.Details)
	r.t.st.actions = append(r.t.st.actions, rec)
	return nil
}

func (r auditRepo) List(_ context.Context, limit int) ([]*domain.AdminAction, error) {
	out := make([]*domain.AdminAction, 0, len(r.t.st.actions))
	for i := len(r.t.st.actions) - 1; i >= 0; i-- {
		a := r.t.st.actions[i]
		out = append(out, &a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
