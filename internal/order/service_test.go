package order

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/common"
	"github.com/noah-isme/seeds-admin/internal/events"
	"github.com/noah-isme/seeds-admin/internal/obs"
)

type recordingEmitter struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingEmitter) Emit(_ context.Context, topic, aggregateID string, _ any) (events.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return events.Envelope{Topic: topic, AggregateID: aggregateID}, nil
}

type failingLedger struct {
	*MemoryLedger
	err error
}

func (f failingLedger) CreateOrder(context.Context, Order) (string, error) { return "", f.err }
func (f failingLedger) ListOrders(context.Context) ([]Order, error)        { return nil, f.err }

// gatedLedger holds every GetOrder until n readers have arrived, so concurrent
// status updates all observe the same pending order.
type gatedLedger struct {
	*MemoryLedger
	wg *sync.WaitGroup
}

func (g gatedLedger) GetOrder(ctx context.Context, id string) (Order, error) {
	o, err := g.MemoryLedger.GetOrder(ctx, id)
	g.wg.Done()
	g.wg.Wait()
	return o, err
}

func newService(t *testing.T, ledger Ledger) (*Service, *recordingEmitter) {
	t.Helper()
	obs.MustRegisterDomainMetrics("seeds_test", prometheus.NewRegistry())
	em := &recordingEmitter{}
	svc, err := NewService(ServiceConfig{Ledger: ledger, Events: em, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return svc, em
}

func TestPlaceAndTransition(t *testing.T) {
	svc, em := newService(t, NewMemoryLedger())
	ctx := common.WithActor(context.Background(), "Asha")

	before := testutil.ToFloat64(obs.OrdersCreatedTotal.WithLabelValues("upi", "ok"))
	placed, err := svc.Place(ctx, sampleOrder(time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, placed.ID)
	require.Equal(t, before+1, testutil.ToFloat64(obs.OrdersCreatedTotal.WithLabelValues("upi", "ok")))

	updated, err := svc.UpdateStatus(ctx, placed.ID, "completed")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.True(t, updated.FinalAmount.Decimal.Equal(placed.FinalAmount.Decimal))

	_, err = svc.UpdateStatus(ctx, placed.ID, "canceled")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.Equal(t, []string{events.TopicOrderCreated, events.TopicOrderStatusChanged}, em.topics)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newService(t, NewMemoryLedger())
	_, err := svc.UpdateStatus(context.Background(), "whatever", "shipped")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = svc.UpdateStatus(context.Background(), "missing", "completed")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestLedgerFailureIsSurfaced(t *testing.T) {
	cause := errors.New("connection reset")
	svc, em := newService(t, failingLedger{MemoryLedger: NewMemoryLedger(), err: cause})

	_, err := svc.Place(context.Background(), sampleOrder(time.Now()))
	require.ErrorIs(t, err, common.ErrExternalService)
	require.ErrorIs(t, err, cause)
	require.Empty(t, em.topics)

	_, err = svc.List(context.Background())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeExternalFailure, appErr.Code)
}

func TestConcurrentStatusUpdatesOnlyOneWins(t *testing.T) {
	mem := NewMemoryLedger()
	id, err := mem.CreateOrder(context.Background(), sampleOrder(time.Now()))
	require.NoError(t, err)

	var gate sync.WaitGroup
	gate.Add(2)
	svc, em := newService(t, gatedLedger{MemoryLedger: mem, wg: &gate})

	targets := []string{"completed", "canceled"}
	errs := make([]error, len(targets))
	var done sync.WaitGroup
	for i, status := range targets {
		done.Add(1)
		go func(i int, status string) {
			defer done.Done()
			_, errs[i] = svc.UpdateStatus(context.Background(), id, status)
		}(i, status)
	}
	done.Wait()

	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
		require.ErrorIs(t, err, ErrInvalidTransition)
	}
	require.Equal(t, 1, failed)
	require.Equal(t, []string{events.TopicOrderStatusChanged}, em.topics)

	final, err := mem.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotEqual(t, StatusPending, final.Status)
}
