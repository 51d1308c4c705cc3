package service

import (
	"context"
	"fmt"
	"time"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/metrics"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateStockRequestInput struct {
	ProductID     uuid.UUID `json:"product_id"`
	RequestedByID uuid.UUID `json:"-"`
	Quantity      int       `json:"quantity"`
	Priority      string    `json:"priority"`
	Notes         string    `json:"notes"`
}

// UpdateStockRequestInput patches only the fields that are set.
type UpdateStockRequestInput struct {
	Quantity *int    `json:"quantity"`
	Priority *string `json:"priority"`
	Notes    *string `json:"notes"`
}

type StockRequestService interface {
	Create(ctx context.Context, in CreateStockRequestInput) (*model.StockRequest, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateStockRequestInput, caller Caller) (*model.StockRequest, error)
	Delete(ctx context.Context, id uuid.UUID, caller Caller) error
	Approve(ctx context.Context, id uuid.UUID, caller Caller) (*model.StockRequest, error)
	Reject(ctx context.Context, id uuid.UUID, caller Caller, reason string) (*model.StockRequest, error)
	List(ctx context.Context, filter repository.StockRequestFilter) ([]model.StockRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.StockRequest, error)
}

type stockRequestService struct {
	requests repository.StockRequestRepository
	products repository.ProductRepository
	users    repository.UserRepository
	ledger   stockLedger
	db       *gorm.DB
	events   EventPublisher
	now      func() time.Time
}

func NewStockRequestService(
	requests repository.StockRequestRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	transactions repository.TransactionRepository,
	db *gorm.DB,
	events EventPublisher,
) StockRequestService {
	return &stockRequestService{
		requests: requests,
		products: products,
		users:    users,
		ledger:   stockLedger{products: products, transactions: transactions},
		db:       db,
		events:   publisherOrNop(events),
		now:      time.Now,
	}
}

var (
	errNotPendingUpdate = apperror.InvalidState("only pending requests can be updated")
	errNotPendingDelete = apperror.InvalidState("only pending requests can be deleted")
	errAlreadyProcessed = apperror.InvalidState("request already processed")
)

func (s *stockRequestService) Create(ctx context.Context, in CreateStockRequestInput) (*model.StockRequest, error) {
	if in.Quantity <= 0 {
		return nil, apperror.InvalidArgument("quantity must be a positive integer")
	}
	priority, err := model.ParsePriority(in.Priority)
	if err != nil {
		return nil, apperror.InvalidArgument(err.Error())
	}
	notes, err := cleanNotes(in.Notes)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, lookupErr(err, "product not found")
	}
	if !product.IsActive {
		return nil, apperror.NotFound("product not found")
	}
	requester, err := s.users.FindByID(ctx, in.RequestedByID)
	if err != nil {
		return nil, lookupErr(err, "requester not found")
	}

	req := &model.StockRequest{
		ProductID:     product.ID,
		RequestedByID: requester.ID,
		Quantity:      in.Quantity,
		Priority:      priority,
		Notes:         notes,
		Status:        model.StatusPending,
	}
	req.CreatedBy = requester.ID.String()
	req.UpdatedBy = requester.ID.String()

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperror.Internal("failed to create stock request", err)
	}

	created, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	s.publish("created", created, &ws.Actor{ID: requester.ID.String(), Name: requester.FullName()},
		fmt.Sprintf("%s requested %d units of '%s'", requester.FullName(), req.Quantity, product.Name))
	return created, nil
}

func (s *stockRequestService) Update(ctx context.Context, id uuid.UUID, in UpdateStockRequestInput, caller Caller) (*model.StockRequest, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.FindForUpdate(tx, id)
		if err != nil {
			return lookupErr(err, "stock request not found")
		}
		if !req.IsPending() {
			return errNotPendingUpdate
		}
		if err := authorizeOwnerOrAdmin(req, caller); err != nil {
			return err
		}

		fields := map[string]interface{}{"updated_by": caller.ID.String()}
		if in.Quantity != nil {
			if *in.Quantity <= 0 {
				return apperror.InvalidArgument("quantity must be a positive integer")
			}
			fields["quantity"] = *in.Quantity
		}
		if in.Priority != nil {
			priority, err := model.ParsePriority(*in.Priority)
			if err != nil {
				return apperror.InvalidArgument(err.Error())
			}
			fields["priority"] = priority
		}
		if in.Notes != nil {
			notes, err := cleanNotes(*in.Notes)
			if err != nil {
				return err
			}
			fields["notes"] = notes
		}

		rows, err := s.requests.UpdatePending(tx, id, fields)
		if err != nil {
			return apperror.Internal("failed to update stock request", err)
		}
		if rows == 0 {
			return errNotPendingUpdate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("updated", updated, caller.actor(), "")
	return updated, nil
}

func (s *stockRequestService) Delete(ctx context.Context, id uuid.UUID, caller Caller) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.FindForUpdate(tx, id)
		if err != nil {
			return lookupErr(err, "stock request not found")
		}
		if !req.IsPending() {
			return errNotPendingDelete
		}
		if err := authorizeOwnerOrAdmin(req, caller); err != nil {
			return err
		}

		rows, err := s.requests.DeletePending(tx, id)
		if err != nil {
			return apperror.Internal("failed to delete stock request", err)
		}
		if rows == 0 {
			return errNotPendingDelete
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ws.Event{
		Type:   ws.TypeStockRequest,
		Action: "deleted",
		Data:   map[string]string{"id": id.String()},
		User:   caller.actor(),
		At:     s.now(),
	})
	return nil
}

// Approve flips the request to approved and issues its stock in one transaction.
// Lock order is request row, then product row.
func (s *stockRequestService) Approve(ctx context.Context, id uuid.UUID, caller Caller) (*model.StockRequest, error) {
	if !caller.IsAdmin {
		return nil, apperror.Forbidden("only administrators can approve stock requests")
	}

	var product *model.Product
	var quantity int
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.FindForUpdate(tx, id)
		if err != nil {
			return lookupErr(err, "stock request not found")
		}
		if !req.Status.CanTransitionTo(model.StatusApproved) {
			return errAlreadyProcessed
		}
		if req.RequestedByID == caller.ID {
			return apperror.Forbidden("cannot approve your own stock request")
		}

		product, err = s.products.FindForUpdate(tx, req.ProductID)
		if err != nil {
			return lookupErr(err, "product not found")
		}
		if product.StockQuantity < req.Quantity {
			return apperror.InsufficientStock(product.StockQuantity, req.Quantity)
		}

		rows, err := s.requests.UpdatePending(tx, id, map[string]interface{}{
			"status":         model.StatusApproved,
			"approved_by_id": caller.ID,
			"approved_at":    now,
			"updated_by":     caller.ID.String(),
		})
		if err != nil {
			return apperror.Internal("failed to approve stock request", err)
		}
		if rows == 0 {
			return errAlreadyProcessed
		}

		quantity = req.Quantity
		_, err = s.ledger.apply(tx, product, stockMovement{
			Type:           model.TxOut,
			Quantity:       req.Quantity,
			Notes:          NoteStockRequestApproved,
			ActorID:        caller.idPtr(),
			StockRequestID: &req.ID,
			At:             now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.StockRequestsDecided.WithLabelValues(string(model.StatusApproved)).Inc()
	metrics.StockMovements.WithLabelValues(string(model.TxOut), metrics.SourceRequest).Inc()

	approved, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("approved", approved, caller.actor(),
		fmt.Sprintf("%s approved %d units of '%s'", caller.Name, quantity, product.Name))
	s.events.Publish(ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "stock_request_approved",
		Data: map[string]interface{}{
			"product_id": product.ID,
			"name":       product.Name,
			"new_stock":  product.StockQuantity,
		},
		User: caller.actor(),
		At:   now,
	})
	return approved, nil
}

func (s *stockRequestService) Reject(ctx context.Context, id uuid.UUID, caller Caller, reason string) (*model.StockRequest, error) {
	if !caller.IsAdmin {
		return nil, apperror.Forbidden("only administrators can reject stock requests")
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.FindForUpdate(tx, id)
		if err != nil {
			return lookupErr(err, "stock request not found")
		}
		if !req.Status.CanTransitionTo(model.StatusRejected) {
			return errAlreadyProcessed
		}
		if req.RequestedByID == caller.ID {
			return apperror.Forbidden("cannot reject your own stock request")
		}

		trimmed, n := trimmedLen(reason)
		if n < model.RejectionReasonMinLen || n > model.RejectionReasonMaxLen {
			return apperror.InvalidArgumentf("rejection reason must be between %d and %d characters",
				model.RejectionReasonMinLen, model.RejectionReasonMaxLen)
		}

		rows, err := s.requests.UpdatePending(tx, id, map[string]interface{}{
			"status":           model.StatusRejected,
			"rejection_reason": trimmed,
			"approved_by_id":   caller.ID,
			"approved_at":      now,
			"updated_by":       caller.ID.String(),
		})
		if err != nil {
			return apperror.Internal("failed to reject stock request", err)
		}
		if rows == 0 {
			return errAlreadyProcessed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StockRequestsDecided.WithLabelValues(string(model.StatusRejected)).Inc()

	rejected, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("rejected", rejected, caller.actor(), "")
	return rejected, nil
}

func (s *stockRequestService) List(ctx context.Context, filter repository.StockRequestFilter) ([]model.StockRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list stock requests", err)
	}
	return requests, nil
}

func (s *stockRequestService) GetByID(ctx context.Context, id uuid.UUID) (*model.StockRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "stock request not found")
	}
	return req, nil
}

func authorizeOwnerOrAdmin(req *model.StockRequest, caller Caller) error {
	if req.RequestedByID != caller.ID && !caller.IsAdmin {
		return apperror.Forbidden("only the requester or an administrator can modify this request")
	}
	return nil
}

func (s *stockRequestService) publish(action string, req *model.StockRequest, actor *ws.Actor, message string) {
	s.events.Publish(ws.Event{
		Type:    ws.TypeStockRequest,
		Action:  action,
		Data:    req.ToResponse(),
		User:    actor,
		Message: message,
		At:      s.now(),
	})
}
