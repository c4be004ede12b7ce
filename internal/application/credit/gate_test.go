package credit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
	apperrors "copysmith-ai-api/pkg/errors"
)

type fakeLedger struct {
	balances     map[string]int64
	transactions []*entity.CreditTransaction

	setBalanceErr error
	addTxErr      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64)}
}

func (f *fakeLedger) GetBalance(_ context.Context, userID string) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeLedger) SetBalance(_ context.Context, userID string, balance int64) error {
	if f.setBalanceErr != nil {
		return f.setBalanceErr
	}
	f.balances[userID] = balance
	return nil
}

func (f *fakeLedger) AddTransaction(_ context.Context, tx *entity.CreditTransaction) error {
	if f.addTxErr != nil {
		return f.addTxErr
	}
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, userID string, _ repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	var items []*entity.CreditTransaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			items = append(items, tx)
		}
	}
	return &repository.PagedResult[*entity.CreditTransaction]{Items: items, Total: int64(len(items))}, nil
}

type fakeTransactor struct{}

func (fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestWithCreditsDeductsOnSuccess(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["user-1"] = 10
	gate := NewGate(ledger, fakeTransactor{})

	called := 0
	err := gate.WithCredits(context.Background(), "user-1", 2, entity.ModeShortForm, "rec-1", func(ctx context.Context) error {
		called++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, int64(8), ledger.balances["user-1"])
	require.Len(t, ledger.transactions, 1)
	assert.Equal(t, int64(-2), ledger.transactions[0].Amount)
	assert.Equal(t, int64(8), ledger.transactions[0].BalanceAfter)
	assert.Equal(t, "rec-1", ledger.transactions[0].RecordID)
	assert.Equal(t, entity.CreditReasonGeneration, ledger.transactions[0].Reason)
}

func TestWithCreditsInsufficientBalance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["user-1"] = 1
	gate := NewGate(ledger, fakeTransactor{})

	called := 0
	err := gate.WithCredits(context.Background(), "user-1", 2, entity.ModeShortForm, "rec-1", func(ctx context.Context) error {
		called++
		return nil
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientCredits))
	assert.Equal(t, 0, called, "generation must not run when balance is insufficient")
	assert.Equal(t, int64(1), ledger.balances["user-1"])
	assert.Empty(t, ledger.transactions)
}

func TestWithCreditsGenerationFailureLeavesBalance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["user-1"] = 10
	gate := NewGate(ledger, fakeTransactor{})

	genErr := apperrors.ErrProviderTimeout
	err := gate.WithCredits(context.Background(), "user-1", 2, entity.ModeLongForm, "rec-1", func(ctx context.Context) error {
		return genErr
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderTimeout))
	assert.Equal(t, int64(10), ledger.balances["user-1"])
	assert.Empty(t, ledger.transactions)
}

func TestWithCreditsLedgerWriteFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["user-1"] = 10
	ledger.addTxErr = errors.New("disk full")
	gate := NewGate(ledger, fakeTransactor{})

	err := gate.WithCredits(context.Background(), "user-1", 2, entity.ModeShortForm, "rec-1", func(ctx context.Context) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLedgerWriteFailed),
		"ledger failure after a successful run must be reported distinctly")
}

func TestWithCreditsExactBalance(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["user-1"] = 2
	gate := NewGate(ledger, fakeTransactor{})

	err := gate.WithCredits(context.Background(), "user-1", 2, entity.ModeTitles, "rec-1", func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.balances["user-1"])
}

func TestGrant(t *testing.T) {
	ledger := newFakeLedger()
	gate := NewGate(ledger, fakeTransactor{})

	require.NoError(t, gate.Grant(context.Background(), "user-1", 50))
	assert.Equal(t, int64(50), ledger.balances["user-1"])
	require.Len(t, ledger.transactions, 1)
	assert.Equal(t, entity.CreditReasonGrant, ledger.transactions[0].Reason)

	err := gate.Grant(context.Background(), "user-1", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}
