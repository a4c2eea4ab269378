package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/farmhub/paygate/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziflex/lecho/v3"
)

type fakeWallet struct {
	mu      sync.Mutex
	entries map[string]*models.LedgerEntry
	err     error
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{entries: make(map[string]*models.LedgerEntry)}
}

func (w *fakeWallet) Credit(ctx context.Context, entry *models.LedgerEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if _, ok := w.entries[entry.SourcePaymentID]; ok {
		return ErrAlreadyCredited
	}
	w.entries[entry.SourcePaymentID] = entry
	return nil
}

func (w *fakeWallet) BalanceFor(ctx context.Context, userID int64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var balance float64
	for _, entry := range w.entries {
		if entry.UserID == userID {
			balance += entry.Amount
		}
	}
	return balance, nil
}

type fakeIdempotencyStore struct {
	mu        sync.Mutex
	processed map[string]bool
	markErr   error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{processed: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) HasProcessed(ctx context.Context, externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[externalID], nil
}

func (s *fakeIdempotencyStore) MarkProcessed(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.processed[externalID] = true
	return nil
}

func testLogger() *lecho.Logger {
	return lecho.New(io.Discard)
}

func testPayment() *models.Payment {
	return &models.Payment{
		ID:            1,
		UserID:        42,
		ExternalID:    "5745459419",
		OrderID:       "order-1",
		PriceAmount:   100,
		PriceCurrency: "usd",
	}
}

func TestCreditAppliesOnce(t *testing.T) {
	wallet := newFakeWallet()
	processed := newFakeIdempotencyStore()
	creditor := NewCreditor(wallet, processed, testLogger())

	credited, err := creditor.Credit(context.Background(), testPayment())
	require.NoError(t, err)
	assert.True(t, credited)

	balance, err := wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)

	// replay is a no-op, not an error
	credited, err = creditor.Credit(context.Background(), testPayment())
	require.NoError(t, err)
	assert.False(t, credited)

	balance, err = wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)
}

func TestCreditSkipsAlreadyProcessed(t *testing.T) {
	wallet := newFakeWallet()
	processed := newFakeIdempotencyStore()
	require.NoError(t, processed.MarkProcessed(context.Background(), "5745459419"))
	creditor := NewCreditor(wallet, processed, testLogger())

	credited, err := creditor.Credit(context.Background(), testPayment())
	require.NoError(t, err)
	assert.False(t, credited)
	assert.Empty(t, wallet.entries)
}

func TestCreditSurvivesLedgerConstraintRace(t *testing.T) {
	// the processed set is empty but the wallet already holds the
	// entry, the constraint violation counts as success
	wallet := newFakeWallet()
	require.NoError(t, wallet.Credit(context.Background(), &models.LedgerEntry{
		UserID:          42,
		Amount:          100,
		SourcePaymentID: "5745459419",
	}))
	processed := newFakeIdempotencyStore()
	creditor := NewCreditor(wallet, processed, testLogger())

	credited, err := creditor.Credit(context.Background(), testPayment())
	require.NoError(t, err)
	assert.False(t, credited)

	// the lost race still marks the payment processed
	done, err := processed.HasProcessed(context.Background(), "5745459419")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCreditPropagatesWalletOutage(t *testing.T) {
	wallet := newFakeWallet()
	wallet.err = ErrWalletUnavailable
	creditor := NewCreditor(wallet, newFakeIdempotencyStore(), testLogger())

	credited, err := creditor.Credit(context.Background(), testPayment())
	assert.ErrorIs(t, err, ErrWalletUnavailable)
	assert.False(t, credited)
}

func TestCreditToleratesMarkProcessedFailure(t *testing.T) {
	wallet := newFakeWallet()
	processed := newFakeIdempotencyStore()
	processed.markErr = ErrWalletUnavailable
	creditor := NewCreditor(wallet, processed, testLogger())

	credited, err := creditor.Credit(context.Background(), testPayment())
	require.NoError(t, err)
	assert.True(t, credited)
	assert.Len(t, wallet.entries, 1)
}

func TestConcurrentCreditsApplyExactlyOnce(t *testing.T) {
	wallet := newFakeWallet()
	processed := newFakeIdempotencyStore()
	creditor := NewCreditor(wallet, processed, testLogger())

	const attempts = 20
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			credited, err := creditor.Credit(context.Background(), testPayment())
			assert.NoError(t, err)
			results <- credited
		}()
	}
	wg.Wait()
	close(results)

	creditedCount := 0
	for credited := range results {
		if credited {
			creditedCount++
		}
	}
	assert.Equal(t, 1, creditedCount)

	balance, err := wallet.BalanceFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, float64(100), balance)
}
