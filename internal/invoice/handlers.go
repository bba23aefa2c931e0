package invoice

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/obs"
)

// Enqueuer schedules background tasks; *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Handler serves invoice endpoints.
type Handler struct {
	Orders    OrderReader
	Generator *Generator
	Queue     Enqueuer
	LogoURL   string
}

// View handles GET /api/v1/orders/{id}/invoice. With download=1 the document
// is sent as an attachment.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	doc, err := h.Generator.Generate(o, h.LogoURL)
	if err != nil {
		if errors.Is(err, ErrInvalidOrderSnapshot) {
			obs.IncCounter(obs.InvoicesRenderedTotal, "invalid")
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_ORDER_SNAPSHOT", err.Error(), nil)
			return
		}
		obs.IncCounter(obs.InvoicesRenderedTotal, "error")
		common.WriteError(w, err)
		return
	}
	obs.IncCounter(obs.InvoicesRenderedTotal, "ok")
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("X-Invoice-Number", doc.Number)
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.HTML)
}

// Export handles POST /api/v1/orders/{id}/invoice/export by queueing an export task.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE",
			"invoice export requires a shared order ledger (LEDGER_BACKEND postgres or mongo)", nil)
		return
	}
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := Validate(o); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_ORDER_SNAPSHOT", err.Error(), nil)
		return
	}
	task, err := NewExportTask(ExportPayload{OrderID: o.ID, LogoURL: h.LogoURL})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	info, err := h.Queue.EnqueueContext(r.Context(), task)
	if err != nil {
		common.WriteError(w, common.ExternalServiceFailure("queue", err))
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{
		"data": map[string]any{"taskId": info.ID, "queue": info.Queue, "orderId": o.ID},
	})
}
