package invoice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/invoice"
	"github.com/noah-isme/seeds-admin/internal/lock"
	"github.com/noah-isme/seeds-admin/internal/order"
)

type stubOrders map[string]order.Order

func (s stubOrders) Get(_ context.Context, id string) (order.Order, error) {
	o, ok := s[id]
	if !ok {
		return order.Order{}, common.NewAppError(common.CodeNotFound, "order not found", http.StatusNotFound, order.ErrNotFound)
	}
	return o, nil
}

type recordingEmitter struct {
	topics []string
}

func (r *recordingEmitter) Emit(_ context.Context, topic, aggregateID string, _ any) (events.Envelope, error) {
	r.topics = append(r.topics, topic)
	return events.Envelope{Topic: topic, AggregateID: aggregateID}, nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

func TestDirExporterWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := invoice.Document{FileName: "Invoice_ord-1_2026-10-18.html", HTML: []byte("<html></html>")}

	h, err := invoice.DirExporter{Dir: dir}.Export(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, doc.FileName), h.Path)
	require.EqualValues(t, len(doc.HTML), h.Size)

	data, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	require.Equal(t, doc.HTML, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = invoice.DirExporter{Dir: dir}.Export(context.Background(), invoice.Document{})
	require.Error(t, err)
}

func TestExportWorkerProcessTask(t *testing.T) {
	dir := t.TempDir()
	emitter := &recordingEmitter{}
	w := &invoice.ExportWorker{
		Orders:    stubOrders{"ord-1": wheatOrder()},
		Generator: fixedGenerator(orderDate),
		Exporter:  invoice.DirExporter{Dir: dir},
		Events:    emitter,
		Logger:    zerolog.Nop(),
	}

	task, err := invoice.NewExportTask(invoice.ExportPayload{OrderID: "ord-1"})
	require.NoError(t, err)
	require.Equal(t, invoice.TypeExport, task.Type())
	require.NoError(t, w.ProcessTask(context.Background(), task))

	_, err = os.Stat(filepath.Join(dir, "Invoice_ord-1_2026-10-18.html"))
	require.NoError(t, err)
	require.Equal(t, []string{events.TopicInvoiceExported}, emitter.topics)
}

func TestExportWorkerSkipsRetryOnBadInput(t *testing.T) {
	broken := wheatOrder()
	broken.ID = "ord-2"
	broken.Items = nil
	w := &invoice.ExportWorker{
		Orders:    stubOrders{"ord-2": broken},
		Generator: fixedGenerator(orderDate),
		Exporter:  invoice.DirExporter{Dir: t.TempDir()},
		Logger:    zerolog.Nop(),
	}

	err := w.ProcessTask(context.Background(), asynq.NewTask(invoice.TypeExport, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := invoice.NewExportTask(invoice.ExportPayload{OrderID: "ord-2"})
	require.NoError(t, err)
	err = w.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, invoice.ErrInvalidOrderSnapshot)

	task, err = invoice.NewExportTask(invoice.ExportPayload{OrderID: "missing"})
	require.NoError(t, err)
	err = w.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, order.ErrNotFound)
}

type unreachableOrders struct{}

func (unreachableOrders) Get(context.Context, string) (order.Order, error) {
	return order.Order{}, common.ExternalServiceFailure("ledger", errors.New("connection refused"))
}

func TestExportWorkerRetriesLedgerFailure(t *testing.T) {
	w := &invoice.ExportWorker{
		Orders:    unreachableOrders{},
		Generator: fixedGenerator(orderDate),
		Exporter:  invoice.DirExporter{Dir: t.TempDir()},
		Logger:    zerolog.Nop(),
	}
	task, err := invoice.NewExportTask(invoice.ExportPayload{OrderID: "ord-1"})
	require.NoError(t, err)
	err = w.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, common.ErrExternalService)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestExportWorkerHonoursOrderLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dir := t.TempDir()
	w := &invoice.ExportWorker{
		Orders:    stubOrders{"ord-1": wheatOrder()},
		Generator: fixedGenerator(orderDate),
		Exporter:  invoice.DirExporter{Dir: dir},
		Lock:      lock.Redis{Client: client, Prefix: "lock"},
		Logger:    zerolog.Nop(),
	}
	task, err := invoice.NewExportTask(invoice.ExportPayload{OrderID: "ord-1"})
	require.NoError(t, err)

	require.NoError(t, mr.Set("lock:invoice:ord-1", "other-worker"))
	err = w.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, lock.ErrNotAcquired)
	require.False(t, errors.Is(err, asynq.SkipRetry))

	mr.Del("lock:invoice:ord-1")
	require.NoError(t, w.ProcessTask(context.Background(), task))
	require.False(t, mr.Exists("lock:invoice:ord-1"))
}

func serve(h http.HandlerFunc, method, target, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlerView(t *testing.T) {
	broken := wheatOrder()
	broken.ID = "ord-3"
	broken.Items = nil
	h := &invoice.Handler{
		Orders:    stubOrders{"ord-1": wheatOrder(), "ord-3": broken},
		Generator: fixedGenerator(orderDate),
	}

	rec := serve(h.View, http.MethodGet, "/api/v1/orders/ord-1/invoice", "ord-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, invoice.ContentType, rec.Header().Get("Content-Type"))
	require.Empty(t, rec.Header().Get("Content-Disposition"))
	require.Contains(t, rec.Body.String(), "₹180.00")

	rec = serve(h.View, http.MethodGet, "/api/v1/orders/ord-1/invoice?download=1", "ord-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="Invoice_ord-1_2026-10-18.html"`, rec.Header().Get("Content-Disposition"))

	rec = serve(h.View, http.MethodGet, "/api/v1/orders/nope/invoice", "nope")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h.View, http.MethodGet, "/api/v1/orders/ord-3/invoice", "ord-3")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_ORDER_SNAPSHOT")
}

func TestHandlerExport(t *testing.T) {
	q := &fakeQueue{}
	h := &invoice.Handler{
		Orders:    stubOrders{"ord-1": wheatOrder()},
		Generator: fixedGenerator(orderDate),
		Queue:     q,
		LogoURL:   "https://cdn.example.com/logo.png",
	}

	rec := serve(h.Export, http.MethodPost, "/api/v1/orders/ord-1/invoice/export", "ord-1")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body struct {
		Data struct {
			TaskID  string `json:"taskId"`
			OrderID string `json:"orderId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "task-1", body.Data.TaskID)
	require.Equal(t, "ord-1", body.Data.OrderID)

	require.Len(t, q.tasks, 1)
	var p invoice.ExportPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	require.Equal(t, invoice.ExportPayload{OrderID: "ord-1", LogoURL: "https://cdn.example.com/logo.png"}, p)

	q.err = errors.New("redis down")
	rec = serve(h.Export, http.MethodPost, "/api/v1/orders/ord-1/invoice/export", "ord-1")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerExportWithoutQueue(t *testing.T) {
	h := &invoice.Handler{
		Orders:    stubOrders{"ord-1": wheatOrder()},
		Generator: fixedGenerator(orderDate),
	}
	rec := serve(h.Export, http.MethodPost, "/api/v1/orders/ord-1/invoice/export", "ord-1")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "EXPORT_UNAVAILABLE")
}
