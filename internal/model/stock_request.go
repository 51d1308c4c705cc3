package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal is true for decided requests
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo encodes the whole state machine: pending -> approved | rejected.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == StatusPending && next.IsTerminal()
}

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority maps free text onto a priority; empty input means normal.
func ParsePriority(raw string) (RequestPriority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return PriorityNormal, nil
	}
	p := RequestPriority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

// ParseStatus maps free text onto a request status.
func ParseStatus(raw string) (RequestStatus, error) {
	s := RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Rejection reason bounds, counted in characters after trimming.
const (
	RejectionReasonMinLen = 3
	RejectionReasonMaxLen = 500
)

// StockRequest is an employee's ask for stock to be issued from a product.
type StockRequest struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`

	RequestedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"requested_by_id"`
	RequestedBy   *User     `gorm:"foreignKey:RequestedByID;constraint:OnDelete:RESTRICT" json:"requested_by,omitempty"`

	Quantity int             `gorm:"not null" json:"quantity"`
	Priority RequestPriority `gorm:"type:varchar(20);not null" json:"priority"`
	Notes    string          `gorm:"type:varchar(500)" json:"notes,omitempty"`

	Status          RequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RejectionReason *string       `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`

	ApprovedByID *uuid.UUID `gorm:"type:uuid" json:"approved_by_id,omitempty"`
	ApprovedBy   *User      `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

func (r *StockRequest) IsPending() bool {
	return r.Status == StatusPending
}

// StockRequestResponse flattens the joined names for list screens
type StockRequestResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductBrand    string          `json:"product_brand,omitempty"`
	RequestedByID   uuid.UUID       `json:"requested_by_id"`
	RequestedByName string          `json:"requested_by_name"`
	Quantity        int             `json:"quantity"`
	Priority        RequestPriority `json:"priority"`
	Notes           string          `json:"notes,omitempty"`
	Status          RequestStatus   `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ApprovedByID    *uuid.UUID      `json:"approved_by_id,omitempty"`
	ApprovedByName  *string         `json:"approved_by_name,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r *StockRequest) ToResponse() StockRequestResponse {
	resp := StockRequestResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		RequestedByID:   r.RequestedByID,
		Quantity:        r.Quantity,
		Priority:        r.Priority,
		Notes:           r.Notes,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		ApprovedByID:    r.ApprovedByID,
		ApprovedAt:      r.ApprovedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Product != nil {
		resp.ProductName = r.Product.Name
		resp.ProductBrand = r.Product.Brand
	}
	if r.RequestedBy != nil {
		resp.RequestedByName = r.RequestedBy.FullName()
	}
	if r.ApprovedBy != nil {
		name := r.ApprovedBy.FullName()
		resp.ApprovedByName = &name
	}
	return resp
}
