package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

type ContentService struct {
	store  ports.LedgerStore
	idem   ports.IdempotencyStore
	events ports.EventPublisher
	logger zerolog.Logger
}

func NewContentService(store ports.LedgerStore, idem ports.IdempotencyStore, events ports.EventPublisher, logger zerolog.Logger) *ContentService {
	return &ContentService{store: store, idem: idem, events: events, logger: logger}
}

// CreateContent adds an active catalog item owned by the calling model.
func (s *ContentService) CreateContent(ctx context.Context, input ports.CreateContentInput) (*domain.DigitalContent, error) {
	price, err := domain.ParseAmount(input.Price)
	if err != nil {
		return nil, err
	}
	content := &domain.DigitalContent{
		Type:         strings.TrimSpace(input.Type),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Price:        price,
		IsActive:     true,
		TotalRevenue: decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	if content.Type == "" {
		return nil, domain.ErrEmptyContentType
	}
	if content.Title == "" {
		return nil, domain.ErrEmptyTitle
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		model, err := requireRole(ctx, tx, input.ModelID, domain.RoleModel)
		if err != nil {
			return err
		}
		content.ModelID = model.ID
		return tx.Content().Create(ctx, content)
	})
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	s.logger.Info().Int64("content_id", content.ID).Int64("model_id", input.ModelID).Msg("content created")
	s.publish(domain.EventContentAdded, content.ID, input.ModelID, map[string]string{
		"title": content.Title,
		"type":  content.Type,
		"price": content.Price.StringFixed(2),
	})
	return content, nil
}

// ListActive returns the browsable catalog in insertion order.
func (s *ContentService) ListActive(ctx context.Context, limit int) ([]*domain.DigitalContent, error) {
	var items []*domain.DigitalContent
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		var err error
		items, err = tx.Content().ListActive(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return items, nil
}

// ListByModel returns every item of the calling model, hidden ones included.
func (s *ContentService) ListByModel(ctx context.Context, actorID int64) ([]*domain.DigitalContent, error) {
	var items []*domain.DigitalContent
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		model, err := requireRole(ctx, tx, actorID, domain.RoleModel)
		if err != nil {
			return err
		}
		items, err = tx.Content().ListByModel(ctx, model.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list model content: %w", err)
	}
	return items, nil
}

// Purchase records a sale at the item's current price. The purchase row, the
// sales counters and both profile totals commit together or not at all.
// With an idempotency key only the first caller is charged.
func (s *ContentService) Purchase(ctx context.Context, input ports.PurchaseInput) (*ports.PurchaseResult, error) {
	scope := "purchase:" + strconv.FormatInt(input.ClientID, 10)
	keyOwned := false
	if input.IdempotencyKey != "" {
		stored, owned, err := reserveKey(ctx, s.idem, scope, input.IdempotencyKey)
		switch {
		case err != nil && keyUnusable(ctx, err):
			return nil, fmt.Errorf("purchase content: %w", err)
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency reserve failed, purchasing anyway")
		case !owned:
			res, err := s.replay(ctx, stored)
			if err != nil {
				return nil, fmt.Errorf("purchase content: replay %s: %w", stored, err)
			}
			s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Int64("purchase_id", res.Purchase.ID).Msg("idempotent replay")
			return res, nil
		default:
			keyOwned = true
		}
	}

	var result *ports.PurchaseResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		client, err := requireRole(ctx, tx, input.ClientID, domain.RoleClient)
		if err != nil {
			return err
		}
		content, err := tx.Content().FindByID(ctx, input.ContentID)
		if err != nil {
			return err
		}
		if !content.IsActive {
			return domain.ErrContentNotFound
		}

		purchase := &domain.ContentPurchase{
			ContentID:   content.ID,
			ClientID:    client.ID,
			PricePaid:   content.Price,
			PurchasedAt: time.Now().UTC(),
		}
		if err := tx.Content().InsertPurchase(ctx, purchase); err != nil {
			return err
		}
		if err := tx.Content().RecordSale(ctx, content.ID, purchase.PricePaid); err != nil {
			return err
		}
		if err := tx.Actors().AddClientSpend(ctx, client.ID, purchase.PricePaid); err != nil {
			return err
		}
		if err := tx.Actors().AddModelEarnings(ctx, content.ModelID, purchase.PricePaid); err != nil {
			return err
		}

		updated, err := tx.Content().FindByID(ctx, content.ID)
		if err != nil {
			return err
		}
		result = &ports.PurchaseResult{Purchase: *purchase, Content: *updated}
		return nil
	})
	if keyOwned {
		var value string
		if err == nil {
			value = strconv.FormatInt(result.Content.ID, 10) + ":" + strconv.FormatInt(result.Purchase.ID, 10)
		}
		settleKey(ctx, s.idem, s.logger, scope, input.IdempotencyKey, value, err)
	}
	if err != nil {
		return nil, fmt.Errorf("purchase content: %w", err)
	}

	s.logger.Info().
		Int64("content_id", result.Content.ID).
		Int64("client_id", input.ClientID).
		Str("price_paid", result.Purchase.PricePaid.StringFixed(2)).
		Msg("content purchased")

	s.publish(domain.EventContentPurchase, result.Content.ID, input.ClientID, map[string]string{
		"price_paid":  result.Purchase.PricePaid.StringFixed(2),
		"purchase_id": strconv.FormatInt(result.Purchase.ID, 10),
	})
	return result, nil
}

// replay loads the purchase stored as "<content id>:<purchase id>".
func (s *ContentService) replay(ctx context.Context, stored string) (*ports.PurchaseResult, error) {
	contentPart, purchasePart, _ := strings.Cut(stored, ":")
	contentID, err1 := strconv.ParseInt(contentPart, 10, 64)
	purchaseID, err2 := strconv.ParseInt(purchasePart, 10, 64)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("malformed idempotency value %q", stored)
	}

	var result *ports.PurchaseResult
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		purchase, err := tx.Content().FindPurchase(ctx, purchaseID)
		if err != nil {
			return err
		}
		content, err := tx.Content().FindByID(ctx, contentID)
		if err != nil {
			return err
		}
		result = &ports.PurchaseResult{Purchase: *purchase, Content: *content, AlreadyExisted: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetActive hides or shows an item. Only the owning model may toggle it.
func (s *ContentService) SetActive(ctx context.Context, contentID, actorID int64, active bool) (*domain.DigitalContent, error) {
	return s.ownerUpdate(ctx, contentID, actorID, func(ctx context.Context, repo ports.ContentRepository) error {
		return repo.SetActive(ctx, contentID, active)
	})
}

// UpdatePrice changes the price charged to future buyers.
func (s *ContentService) UpdatePrice(ctx context.Context, contentID, actorID int64, price string) (*domain.DigitalContent, error) {
	amount, err := domain.ParseAmount(price)
	if err != nil {
		return nil, err
	}
	return s.ownerUpdate(ctx, contentID, actorID, func(ctx context.Context, repo ports.ContentRepository) error {
		return repo.SetPrice(ctx, contentID, amount)
	})
}

func (s *ContentService) ownerUpdate(
	ctx context.Context,
	contentID, actorID int64,
	apply func(ctx context.Context, repo ports.ContentRepository) error,
) (*domain.DigitalContent, error) {
	var out *domain.DigitalContent
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, actorID)
		if err != nil {
			return err
		}
		content, err := tx.Content().FindByID(ctx, contentID)
		if err != nil {
			return err
		}
		if content.ModelID != actor.ID {
			return domain.ErrNotContentOwner
		}
		if err := apply(ctx, tx.Content()); err != nil {
			return err
		}
		out, err = tx.Content().FindByID(ctx, contentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}
	s.logger.Info().Int64("content_id", contentID).Bool("active", out.IsActive).Str("price", out.Price.StringFixed(2)).Msg("content updated")
	return out, nil
}

func (s *ContentService) publish(t domain.EventType, contentID, actorID int64, payload map[string]string) {
	s.events.Publish(domain.Event{
		Type:       t,
		Subject:    strconv.FormatInt(contentID, 10),
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
}
