package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// CreateContentInput carries a new catalog item. ModelID is an external id.
type CreateContentInput struct {
	ModelID     int64
	Type        string
	Price       string
	Title       string
	Description string
}

// PurchaseInput identifies a purchase. ClientID is an external id.
type PurchaseInput struct {
	ContentID      int64
	ClientID       int64
	IdempotencyKey string
}

// PurchaseResult is returned after a purchase commits.
type PurchaseResult struct {
	Purchase       domain.ContentPurchase
	Content        domain.DigitalContent
	AlreadyExisted bool
}

// ContentService defines catalog and purchase operations.
type ContentService interface {
	CreateContent(ctx context.Context, input CreateContentInput) (*domain.DigitalContent, error)
	ListActive(ctx context.Context, limit int) ([]*domain.DigitalContent, error)
	ListByModel(ctx context.Context, actorID int64) ([]*domain.DigitalContent, error)
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	SetActive(ctx context.Context, contentID, actorID int64, active bool) (*domain.DigitalContent, error)
	UpdatePrice(ctx context.Context, contentID, actorID int64, price string) (*domain.DigitalContent, error)
}

// AuditService exposes the admin audit log to administrators.
type AuditService interface {
	ListAdminActions(ctx context.Context, adminID int64, limit int) ([]*domain.AdminAction, error)
}
