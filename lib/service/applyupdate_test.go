package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/farmhub/paygate/common"
	"github.com/farmhub/paygate/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// fakePaymentStore serializes transactions on one mutex, mirroring the
// row lock semantics of the bun store. Writes become visible only on
// Commit.
type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	events   []models.PaymentStatusEvent
}

func newFakePaymentStore(payments ...*models.Payment) *fakePaymentStore {
	store := &fakePaymentStore{payments: make(map[string]*models.Payment)}
	for _, payment := range payments {
		store.payments[payment.ExternalID] = payment
	}
	return store
}

func (s *fakePaymentStore) Begin(ctx context.Context) (PaymentTx, error) {
	s.mu.Lock()
	return &fakePaymentTx{store: s}, nil
}

func (s *fakePaymentStore) ListStale(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := []models.Payment{}
	for _, payment := range s.payments {
		if payment.ExternalID == "" || IsTerminal(Status(payment.Status)) {
			continue
		}
		touched := payment.CreatedAt
		if !payment.UpdatedAt.IsZero() {
			touched = payment.UpdatedAt.Time
		}
		if touched.Before(cutoff) {
			stale = append(stale, *payment)
		}
	}
	return stale, nil
}

func (s *fakePaymentStore) eventsFor(paymentID int64) []models.PaymentStatusEvent {
	events := []models.PaymentStatusEvent{}
	for _, event := range s.events {
		if event.PaymentID == paymentID {
			events = append(events, event)
		}
	}
	return events
}

type fakePaymentTx struct {
	store   *fakePaymentStore
	pending *models.Payment
	events  []models.PaymentStatusEvent
}

func (t *fakePaymentTx) GetForUpdate(ctx context.Context, externalID string) (*models.Payment, error) {
	payment, ok := t.store.payments[externalID]
	if !ok {
		return nil, ErrUnknownPayment
	}
	copied := *payment
	return &copied, nil
}

func (t *fakePaymentTx) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	copied := *payment
	t.pending = &copied
	return nil
}

func (t *fakePaymentTx) RecordEvent(ctx context.Context, paymentID int64, status Status, source string, applied bool) error {
	t.events = append(t.events, models.PaymentStatusEvent{
		PaymentID: paymentID,
		Status:    string(status),
		Source:    source,
		Applied:   applied,
	})
	return nil
}

func (t *fakePaymentTx) Commit() error {
	if t.pending != nil {
		t.store.payments[t.pending.ExternalID] = t.pending
	}
	t.store.events = append(t.store.events, t.events...)
	t.store.mu.Unlock()
	return nil
}

func (t *fakePaymentTx) Rollback() error {
	t.store.mu.Unlock()
	return nil
}

func newUpdateTestService(store *fakePaymentStore, wallet *fakeWallet, gatewayClient *fakeGatewayClient) *PaygateService {
	return &PaygateService{
		Config:        &Config{ReconciliationStaleness: 900},
		Logger:        testLogger(),
		GatewayClient: gatewayClient,
		PaymentStore:  store,
		WalletStore:   wallet,
		Creditor:      NewCreditor(wallet, newFakeIdempotencyStore(), testLogger()),
		PaymentPubSub: NewPubsub(),
	}
}

func pendingPayment(id int64, externalID string, status Status) *models.Payment {
	return &models.Payment{
		ID:            id,
		UserID:        42,
		ExternalID:    externalID,
		OrderID:       externalID + "-order",
		PriceAmount:   100,
		PriceCurrency: "usd",
		Status:        string(status),
		CreatedAt:     time.Now().Add(-2 * time.Hour),
	}
}

func TestSweepCreditsStaleWaitingPayment(t *testing.T) {
	store := newFakePaymentStore(pendingPayment(1, "ext-1", StatusWaiting))
	wallet := newFakeWallet()
	svc := newUpdateTestService(store, wallet, &fakeGatewayClient{
		statuses: map[string]string{"ext-1": "finished"},
	})

	require.NoError(t, svc.SweepStalePayments(context.Background()))

	payment := store.payments["ext-1"]
	assert.Equal(t, string(StatusFinished), payment.Status)
	assert.False(t, payment.CreditedAt.IsZero())

	balance, err := wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)

	events := store.eventsFor(1)
	require.Len(t, events, 1)
	assert.Equal(t, string(StatusFinished), events[0].Status)
	assert.Equal(t, common.PaymentSourceReconciliation, events[0].Source)
	assert.True(t, events[0].Applied)

	// a second sweep must not credit again
	require.NoError(t, svc.SweepStalePayments(context.Background()))
	balance, err = wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)
}

func TestSweepContinuesPastFailingRecords(t *testing.T) {
	store := newFakePaymentStore(
		pendingPayment(1, "ext-unreachable", StatusWaiting),
		pendingPayment(2, "ext-2", StatusConfirming),
	)
	wallet := newFakeWallet()
	svc := newUpdateTestService(store, wallet, &fakeGatewayClient{
		statuses: map[string]string{"ext-2": "finished"},
	})

	require.NoError(t, svc.SweepStalePayments(context.Background()))

	assert.Equal(t, string(StatusWaiting), store.payments["ext-unreachable"].Status)
	assert.Equal(t, string(StatusFinished), store.payments["ext-2"].Status)
	balance, err := wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)
}

func TestLateWebhookAfterFinishedIsIgnored(t *testing.T) {
	payment := pendingPayment(1, "ext-1", StatusFinished)
	payment.CreditedAt = bun.NullTime{Time: time.Now().Add(-time.Hour)}
	store := newFakePaymentStore(payment)
	wallet := newFakeWallet()
	require.NoError(t, wallet.Credit(context.Background(), &models.LedgerEntry{
		UserID:          42,
		Amount:          100,
		SourcePaymentID: "ext-1",
	}))
	svc := newUpdateTestService(store, wallet, &fakeGatewayClient{})

	err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
		ExternalID: "ext-1",
		Status:     StatusWaiting,
		Source:     common.PaymentSourceWebhook,
	})
	require.NoError(t, err)

	// status and ledger stay untouched, only the history grows
	assert.Equal(t, string(StatusFinished), store.payments["ext-1"].Status)
	balance, err := wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)

	events := store.eventsFor(1)
	require.Len(t, events, 1)
	assert.Equal(t, string(StatusWaiting), events[0].Status)
	assert.False(t, events[0].Applied)
}

func TestRefundedRecordRejectsAllUpdates(t *testing.T) {
	store := newFakePaymentStore(pendingPayment(1, "ext-1", StatusRefunded))
	wallet := newFakeWallet()
	svc := newUpdateTestService(store, wallet, &fakeGatewayClient{})

	for _, reported := range []Status{StatusWaiting, StatusConfirming, StatusConfirmed, StatusFinished, StatusFailed} {
		err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
			ExternalID: "ext-1",
			Status:     reported,
			Source:     common.PaymentSourceWebhook,
		})
		require.NoError(t, err)
		assert.Equal(t, string(StatusRefunded), store.payments["ext-1"].Status)
	}
	assert.Empty(t, wallet.entries)
	for _, event := range store.eventsFor(1) {
		assert.False(t, event.Applied)
	}
}

func TestDuplicateStatusLeavesNoTrace(t *testing.T) {
	store := newFakePaymentStore(pendingPayment(1, "ext-1", StatusConfirming))
	svc := newUpdateTestService(store, newFakeWallet(), &fakeGatewayClient{})

	err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
		ExternalID: "ext-1",
		Status:     StatusConfirming,
		Source:     common.PaymentSourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, string(StatusConfirming), store.payments["ext-1"].Status)
	assert.Empty(t, store.events)
}

func TestWalletOutageRollsBackTransition(t *testing.T) {
	store := newFakePaymentStore(pendingPayment(1, "ext-1", StatusConfirmed))
	wallet := newFakeWallet()
	wallet.err = ErrWalletUnavailable
	svc := newUpdateTestService(store, wallet, &fakeGatewayClient{})

	err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
		ExternalID: "ext-1",
		Status:     StatusFinished,
		Source:     common.PaymentSourceWebhook,
	})
	require.ErrorIs(t, err, ErrWalletUnavailable)

	// the record stays confirmed so the next delivery retries the
	// whole transition
	payment := store.payments["ext-1"]
	assert.Equal(t, string(StatusConfirmed), payment.Status)
	assert.True(t, payment.CreditedAt.IsZero())
	assert.Empty(t, store.events)
}

func TestApplyPaymentUpdateUnknownInvoice(t *testing.T) {
	store := newFakePaymentStore()
	svc := newUpdateTestService(store, newFakeWallet(), &fakeGatewayClient{})

	err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
		ExternalID: "never-created",
		Status:     StatusFinished,
		Source:     common.PaymentSourceWebhook,
	})
	assert.ErrorIs(t, err, ErrUnknownPayment)
}

func TestApplyPaymentUpdatePublishesCreditedPayments(t *testing.T) {
	store := newFakePaymentStore(pendingPayment(1, "ext-1", StatusConfirmed))
	svc := newUpdateTestService(store, newFakeWallet(), &fakeGatewayClient{})
	credited := make(chan models.Payment, 1)
	svc.PaymentPubSub.Subscribe(common.PaymentTopicCredited, credited)

	err := svc.ApplyPaymentUpdate(context.Background(), StatusUpdate{
		ExternalID: "ext-1",
		Status:     StatusFinished,
		Source:     common.PaymentSourceWebhook,
	})
	require.NoError(t, err)

	select {
	case payment := <-credited:
		assert.Equal(t, "ext-1", payment.ExternalID)
		assert.Equal(t, string(StatusFinished), payment.Status)
	default:
		t.Fatal("credited payment was not published")
	}
}
