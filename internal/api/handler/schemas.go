package handler

import (
	"time"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// --- Requests ---

type commandRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

type beginRegistrationRequest struct {
	Role string `json:"role" validate:"required,oneof=client model"`
}

type registrationInputRequest struct {
	Text string `json:"text" validate:"required,max=256"`
}

type switchRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client model"`
}

type createSessionRequest struct {
	ModelID     int64  `json:"model_id"     validate:"required,gt=0"`
	SessionType string `json:"session_type" validate:"required,max=64"`
	Price       string `json:"price"        validate:"required,numeric"`
}

type disputeRequest struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

type createContentRequest struct {
	ContentType string `json:"content_type" validate:"required,max=64"`
	Price       string `json:"price"        validate:"required,numeric"`
	Title       string `json:"title"        validate:"required,max=256"`
	Description string `json:"description"  validate:"max=4096"`
}

// updateContentRequest changes visibility, price or both.
type updateContentRequest struct {
	IsActive *bool  `json:"is_active"`
	Price    string `json:"price" validate:"omitempty,numeric"`
}

// --- Responses ---

type commandResponse struct {
	Command string `json:"command,omitempty"`
	Reply   string `json:"reply"`
}

type registrationResponse struct {
	Pending   bool   `json:"pending"`
	Role      string `json:"role,omitempty"`
	Step      string `json:"step,omitempty"`
	Completed bool   `json:"completed"`
}

type actorResponse struct {
	ExternalID int64  `json:"external_id"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}

type escrowResponse struct {
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	DisputeReason string     `json:"dispute_reason,omitempty"`
	ReleasedAt    *time.Time `json:"released_at,omitempty"`
}

type sessionLinks struct {
	Self string `json:"self"`
}

type sessionResponse struct {
	Ref            string         `json:"session_ref"`
	Type           string         `json:"session_type"`
	Price          string         `json:"package_price"`
	Status         string         `json:"status"`
	ActualStart    *time.Time     `json:"actual_start,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Escrow         escrowResponse `json:"escrow"`
	AlreadyExisted bool           `json:"already_existed,omitempty"`
	Links          sessionLinks   `json:"_links"`
}

type contentResponse struct {
	ID           int64     `json:"id"`
	ContentType  string    `json:"content_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Price        string    `json:"price"`
	IsActive     bool      `json:"is_active"`
	TotalSales   int64     `json:"total_sales"`
	TotalRevenue string    `json:"total_revenue"`
	CreatedAt    time.Time `json:"created_at"`
}

type purchaseResponse struct {
	PurchaseID     int64           `json:"purchase_id"`
	PricePaid      string          `json:"price_paid"`
	PurchasedAt    time.Time       `json:"purchased_at"`
	Content        contentResponse `json:"content"`
	AlreadyExisted bool            `json:"already_existed,omitempty"`
}

type adminActionResponse struct {
	ID            int64             `json:"id"`
	AdminID       int64             `json:"admin_id"`
	ActionType    string            `json:"action_type"`
	TargetActorID int64             `json:"target_actor_id,omitempty"`
	TargetType    string            `json:"target_type"`
	TargetID      int64             `json:"target_id"`
	Details       map[string]string `json:"details,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// --- Mappers ---

func toRegistrationResponse(r *ports.RegistrationResult) registrationResponse {
	return registrationResponse{
		Pending:   r.Pending,
		Role:      string(r.Role),
		Step:      string(r.Step),
		Completed: r.Completed,
	}
}

func toActorResponse(a *domain.Actor) actorResponse {
	return actorResponse{
		ExternalID: a.ExternalID,
		Username:   a.Username,
		Role:       string(a.Role),
		Status:     string(a.Status),
	}
}

func toSessionResponse(d *ports.SessionDetail) sessionResponse {
	return sessionResponse{
		Ref:         d.Session.Ref,
		Type:        d.Session.Type,
		Price:       d.Session.PackagePrice.StringFixed(2),
		Status:      string(d.Session.Status),
		ActualStart: d.Session.ActualStart,
		EndedAt:     d.Session.EndedAt,
		CreatedAt:   d.Session.CreatedAt,
		Escrow: escrowResponse{
			Amount:        d.Escrow.Amount.StringFixed(2),
			Status:        string(d.Escrow.Status),
			DisputeReason: d.Escrow.DisputeReason,
			ReleasedAt:    d.Escrow.ReleasedAt,
		},
		AlreadyExisted: d.AlreadyExisted,
		Links:          sessionLinks{Self: "/v1/sessions/" + d.Session.Ref},
	}
}

func toContentResponse(c *domain.DigitalContent) contentResponse {
	return contentResponse{
		ID:           c.ID,
		ContentType:  c.Type,
		Title:        c.Title,
		Description:  c.Description,
		Price:        c.Price.StringFixed(2),
		IsActive:     c.IsActive,
		TotalSales:   c.TotalSales,
		TotalRevenue: c.TotalRevenue.StringFixed(2),
		CreatedAt:    c.CreatedAt,
	}
}

func toContentList(items []*domain.DigitalContent) listResponse[contentResponse] {
	out := make([]contentResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toContentResponse(c))
	}
	return listResponse[contentResponse]{Items: out, Count: len(out)}
}

func toAdminActionResponse(a *domain.AdminAction) adminActionResponse {
	return adminActionResponse{
		ID:            a.ID,
		AdminID:       a.AdminID,
		ActionType:    a.ActionType,
		TargetActorID: a.TargetActorID,
		TargetType:    a.TargetType,
		TargetID:      a.TargetID,
		Details:       a.Details,
		CreatedAt:     a.CreatedAt,
	}
}
