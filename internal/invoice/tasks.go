package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/obs"
	"github.com/noah-isme/seeds-admin/internal/order"
)

// TypeExport is the asynq task type for invoice exports.
const TypeExport = "invoice:export"

// ExportPayload is the body of an export task.
type ExportPayload struct {
	OrderID string `json:"orderId"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// NewExportTask builds an export task for one order.
func NewExportTask(p ExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExport, data, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// OrderReader loads orders for rendering.
type OrderReader interface {
	Get(ctx context.Context, id string) (order.Order, error)
}

// Locker serialises work on one key across worker processes.
type Locker interface {
	Do(ctx context.Context, key string, fn func(context.Context) error) error
}

// ExportWorker handles export tasks. With a Lock set, two exports of the same
// order never write concurrently; the loser is retried by the queue.
type ExportWorker struct {
	Orders    OrderReader
	Generator *Generator
	Exporter  Exporter
	Events    events.Emitter
	Lock      Locker
	Logger    zerolog.Logger
}

// ProcessTask implements asynq.Handler. Snapshot, payload and missing-order
// errors are not retried.
func (w *ExportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ExportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.OrderID == "" {
		return fmt.Errorf("invoice: bad export payload: %w", asynq.SkipRetry)
	}
	if w.Lock == nil {
		return w.export(ctx, p)
	}
	return w.Lock.Do(ctx, "invoice:"+p.OrderID, func(ctx context.Context) error {
		return w.export(ctx, p)
	})
}

func (w *ExportWorker) export(ctx context.Context, p ExportPayload) error {
	o, err := w.Orders.Get(ctx, p.OrderID)
	if errors.Is(err, order.ErrNotFound) {
		obs.IncCounter(obs.InvoiceExportsTotal, "missing")
		w.Logger.Error().Str("order_id", p.OrderID).Msg("invoice export skipped: order not found")
		return fmt.Errorf("invoice: load order %s: %w: %w", p.OrderID, err, asynq.SkipRetry)
	}
	if err != nil {
		obs.IncCounter(obs.InvoiceExportsTotal, "error")
		return fmt.Errorf("invoice: load order %s: %w", p.OrderID, err)
	}
	doc, err := w.Generator.Generate(o, p.LogoURL)
	if err != nil {
		obs.IncCounter(obs.InvoiceExportsTotal, "invalid")
		if errors.Is(err, ErrInvalidOrderSnapshot) {
			w.Logger.Error().Err(err).Str("order_id", p.OrderID).Msg("invoice export skipped")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	handle, err := w.Exporter.Export(ctx, doc)
	if err != nil {
		obs.IncCounter(obs.InvoiceExportsTotal, "error")
		return fmt.Errorf("invoice: export %s: %w", p.OrderID, err)
	}
	obs.IncCounter(obs.InvoiceExportsTotal, "ok")
	w.Logger.Info().Str("order_id", p.OrderID).Str("invoice", doc.Number).Str("path", handle.Path).Msg("invoice exported")
	if w.Events != nil {
		if _, err := w.Events.Emit(ctx, events.TopicInvoiceExported, p.OrderID, map[string]any{
			"orderId": p.OrderID,
			"number":  doc.Number,
			"path":    handle.Path,
			"size":    handle.Size,
		}); err != nil {
			w.Logger.Warn().Err(err).Str("order_id", p.OrderID).Msg("event delivery failed")
		}
	}
	return nil
}
