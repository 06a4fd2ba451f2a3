package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const (
	collectionActors         = "actors"
	collectionModelProfiles  = "model_profiles"
	collectionClientProfiles = "client_profiles"
	collectionSessions       = "sessions"
	collectionEscrows        = "escrow_accounts"
	collectionContent        = "digital_content"
	collectionPurchases      = "content_purchases"
	collectionAdminActions   = "admin_actions"
	collectionCounters       = "counters"
)

// Money is stored as Decimal128 so $inc stays exact.
func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type actorDoc struct {
	ID            int64                `bson:"_id"`
	ExternalID    int64                `bson:"external_id"`
	Username      string               `bson:"username"`
	FirstName     string               `bson:"first_name"`
	LastName      string               `bson:"last_name"`
	Email         string               `bson:"email"`
	Role          string               `bson:"role"`
	Status        string               `bson:"status"`
	WalletBalance primitive.Decimal128 `bson:"wallet_balance"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func newActorDoc(a *domain.Actor) actorDoc {
	return actorDoc{
		ID:            a.ID,
		ExternalID:    a.ExternalID,
		Username:      a.Username,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Role:          string(a.Role),
		Status:        string(a.Status),
		WalletBalance: toDecimal128(a.WalletBalance),
		CreatedAt:     a.CreatedAt,
	}
}

func (d actorDoc) toDomain() *domain.Actor {
	return &domain.Actor{
		ID:            d.ID,
		ExternalID:    d.ExternalID,
		Username:      d.Username,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		Role:          domain.Role(d.Role),
		Status:        domain.ActorStatus(d.Status),
		WalletBalance: fromDecimal128(d.WalletBalance),
		CreatedAt:     d.CreatedAt,
	}
}

type modelProfileDoc struct {
	ActorID            int64                `bson:"_id"`
	DisplayName        string               `bson:"display_name"`
	VerificationStatus string               `bson:"verification_status"`
	TotalEarnings      primitive.Decimal128 `bson:"total_earnings"`
	CreatedAt          time.Time            `bson:"created_at"`
}

func (d modelProfileDoc) toDomain() *domain.ModelProfile {
	return &domain.ModelProfile{
		ActorID:            d.ActorID,
		DisplayName:        d.DisplayName,
		VerificationStatus: d.VerificationStatus,
		TotalEarnings:      fromDecimal128(d.TotalEarnings),
		CreatedAt:          d.CreatedAt,
	}
}

type clientProfileDoc struct {
	ActorID    int64                `bson:"_id"`
	TotalSpent primitive.Decimal128 `bson:"total_spent"`
	CreatedAt  time.Time            `bson:"created_at"`
}

func (d clientProfileDoc) toDomain() *domain.ClientProfile {
	return &domain.ClientProfile{
		ActorID:    d.ActorID,
		TotalSpent: fromDecimal128(d.TotalSpent),
		CreatedAt:  d.CreatedAt,
	}
}

type sessionDoc struct {
	ID           int64                `bson:"_id"`
	Ref          string               `bson:"session_ref"`
	ClientID     int64                `bson:"client_id"`
	ModelID      int64                `bson:"model_id"`
	Type         string               `bson:"session_type"`
	PackagePrice primitive.Decimal128 `bson:"package_price"`
	Status       string               `bson:"status"`
	ActualStart  *time.Time           `bson:"actual_start,omitempty"`
	EndedAt      *time.Time           `bson:"ended_at,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func newSessionDoc(s *domain.Session) sessionDoc {
	return sessionDoc{
		ID:           s.ID,
		Ref:          s.Ref,
		ClientID:     s.ClientID,
		ModelID:      s.ModelID,
		Type:         s.Type,
		PackagePrice: toDecimal128(s.PackagePrice),
		Status:       string(s.Status),
		ActualStart:  s.ActualStart,
		EndedAt:      s.EndedAt,
		CreatedAt:    s.CreatedAt,
	}
}

func (d sessionDoc) toDomain() *domain.Session {
	return &domain.Session{
		ID:           d.ID,
		Ref:          d.Ref,
		ClientID:     d.ClientID,
		ModelID:      d.ModelID,
		Type:         d.Type,
		PackagePrice: fromDecimal128(d.PackagePrice),
		Status:       domain.SessionStatus(d.Status),
		ActualStart:  d.ActualStart,
		EndedAt:      d.EndedAt,
		CreatedAt:    d.CreatedAt,
	}
}

type escrowDoc struct {
	ID            int64                `bson:"_id"`
	SessionID     int64                `bson:"session_id"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Status        string               `bson:"status"`
	DisputeReason string               `bson:"dispute_reason,omitempty"`
	ReleasedAt    *time.Time           `bson:"released_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func newEscrowDoc(e *domain.EscrowAccount) escrowDoc {
	return escrowDoc{
		ID:            e.ID,
		SessionID:     e.SessionID,
		Amount:        toDecimal128(e.Amount),
		Status:        string(e.Status),
		DisputeReason: e.DisputeReason,
		ReleasedAt:    e.ReleasedAt,
		CreatedAt:     e.CreatedAt,
	}
}

func (d escrowDoc) toDomain() *domain.EscrowAccount {
	return &domain.EscrowAccount{
		ID:            d.ID,
		SessionID:     d.SessionID,
		Amount:        fromDecimal128(d.Amount),
		Status:        domain.EscrowStatus(d.Status),
		DisputeReason: d.DisputeReason,
		ReleasedAt:    d.ReleasedAt,
		CreatedAt:     d.CreatedAt,
	}
}

type contentDoc struct {
	ID           int64                `bson:"_id"`
	ModelID      int64                `bson:"model_id"`
	Type         string               `bson:"content_type"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	IsActive     bool                 `bson:"is_active"`
	TotalSales   int64                `bson:"total_sales"`
	TotalRevenue primitive.Decimal128 `bson:"total_revenue"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func newContentDoc(c *domain.DigitalContent) contentDoc {
	return contentDoc{
		ID:           c.ID,
		ModelID:      c.ModelID,
		Type:         c.Type,
		Title:        c.Title,
		Description:  c.Description,
		Price:        toDecimal128(c.Price),
		IsActive:     c.IsActive,
		TotalSales:   c.TotalSales,
		TotalRevenue: toDecimal128(c.TotalRevenue),
		CreatedAt:    c.CreatedAt,
	}
}

func (d contentDoc) toDomain() *domain.DigitalContent {
	return &domain.DigitalContent{
		ID:           d.ID,
		ModelID:      d.ModelID,
		Type:         d.Type,
		Title:        d.Title,
		Description:  d.Description,
		Price:        fromDecimal128(d.Price),
		IsActive:     d.IsActive,
		TotalSales:   d.TotalSales,
		TotalRevenue: fromDecimal128(d.TotalRevenue),
		CreatedAt:    d.CreatedAt,
	}
}

type purchaseDoc struct {
	ID          int64                `bson:"_id"`
	ContentID   int64                `bson:"content_id"`
	ClientID    int64                `bson:"client_id"`
	PricePaid   primitive.Decimal128 `bson:"price_paid"`
	PurchasedAt time.Time            `bson:"purchased_at"`
}

func (d purchaseDoc) toDomain() *domain.ContentPurchase {
	return &domain.ContentPurchase{
		ID:          d.ID,
		ContentID:   d.ContentID,
		ClientID:    d.ClientID,
		PricePaid:   fromDecimal128(d.PricePaid),
		PurchasedAt: d.PurchasedAt,
	}
}

type adminActionDoc struct {
	ID            int64             `bson:"_id"`
	AdminID       int64             `bson:"admin_id"`
	ActionType    string            `bson:"action_type"`
	TargetActorID int64             `bson:"target_user_id,omitempty"`
	TargetType    string            `bson:"target_type"`
	TargetID      int64             `bson:"target_id"`
	Details       map[string]string `bson:"details,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
}

func (d adminActionDoc) toDomain() *domain.AdminAction {
	return &domain.AdminAction{
		ID:            d.ID,
		AdminID:       d.AdminID,
		ActionType:    d.ActionType,
		TargetActorID: d.TargetActorID,
		TargetType:    d.TargetType,
		TargetID:      d.TargetID,
		Details:       d.Details,
		CreatedAt:     d.CreatedAt,
	}
}
