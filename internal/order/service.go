package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/obs"
)

// Service wraps a Ledger with status rules, events and metrics.
type Service struct {
	ledger Ledger
	events events.Emitter
	log    zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Ledger Ledger
	Events events.Emitter
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("order: ledger is required")
	}
	return &Service{ledger: cfg.Ledger, events: cfg.Events, log: cfg.Logger}, nil
}

// Place stores a new order and announces it. The returned order carries the ledger id.
func (s *Service) Place(ctx context.Context, o Order) (Order, error) {
	method := "unknown"
	if o.CustomerDetails != nil {
		method = string(o.CustomerDetails.PaymentMethod)
	}
	id, err := s.ledger.CreateOrder(ctx, o)
	if err != nil {
		obs.IncCounter(obs.OrdersCreatedTotal, method, "error")
		return Order{}, common.ExternalServiceFailure("ledger", err)
	}
	o.ID = id
	obs.IncCounter(obs.OrdersCreatedTotal, method, "ok")
	if o.NeedsReview {
		s.log.Warn().Str("order_id", id).Msg("final amount clamped at zero, order flagged for review")
	}
	s.emit(ctx, events.TopicOrderCreated, id, map[string]any{
		"orderId":     id,
		"userId":      o.UserID,
		"finalAmount": o.FinalAmount,
		"needsReview": o.NeedsReview,
	})
	return o, nil
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.ledger.ListOrders(ctx)
	if err != nil {
		return nil, common.ExternalServiceFailure("ledger", err)
	}
	return orders, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.ledger.GetOrder(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return Order{}, common.NewAppError(common.CodeNotFound, "order not found", http.StatusNotFound, err)
	}
	if err != nil {
		return Order{}, common.ExternalServiceFailure("ledger", err)
	}
	return o, nil
}

// UpdateStatus moves a pending order to completed or canceled. Amounts are untouched.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (Order, error) {
	next, ok := ParseStatus(raw)
	if !ok {
		return Order{}, common.NewAppError(common.CodeBadRequest, "unsupported status", http.StatusBadRequest, nil)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		obs.IncCounter(obs.OrderStatusTransitionsTotal, string(current.Status), string(next), "rejected")
		return Order{}, common.NewAppError(common.CodeConflict,
			fmt.Sprintf("cannot change status from %s to %s", current.Status, next),
			http.StatusConflict, ErrInvalidTransition)
	}
	err = s.ledger.UpdateOrderStatus(ctx, current.ID, current.Status, next)
	if errors.Is(err, ErrNotFound) {
		return Order{}, common.NewAppError(common.CodeNotFound, "order not found", http.StatusNotFound, err)
	}
	if errors.Is(err, ErrInvalidTransition) {
		obs.IncCounter(obs.OrderStatusTransitionsTotal, string(current.Status), string(next), "rejected")
		return Order{}, common.NewAppError(common.CodeConflict,
			fmt.Sprintf("order %s changed status concurrently", current.ID),
			http.StatusConflict, err)
	}
	if err != nil {
		obs.IncCounter(obs.OrderStatusTransitionsTotal, string(current.Status), string(next), "error")
		return Order{}, common.ExternalServiceFailure("ledger", err)
	}
	obs.IncCounter(obs.OrderStatusTransitionsTotal, string(current.Status), string(next), "ok")
	s.emit(ctx, events.TopicOrderStatusChanged, current.ID, map[string]any{
		"orderId": current.ID,
		"from":    current.Status,
		"to":      next,
		"actor":   common.Actor(ctx),
	})
	current.Status = next
	return current, nil
}

func (s *Service) emit(ctx context.Context, topic, id string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, id, payload); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Str("order_id", id).Msg("event delivery failed")
	}
}
