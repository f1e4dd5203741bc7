package deposits

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

func setup(t *testing.T, rates domain.PolicyRateProvider) (*Service, func() decimal.Decimal, int64, int64) {
	t.Helper()
	db := testutil.NewTestDB(t, "ledger")
	log := zerolog.Nop()
	poster := ledger.NewPoster(accounts.NewRepository(db.Conn(), log), ledger.NewRepository(db.Conn(), log))
	svc := NewService(NewRepository(db.Conn(), log), poster, rates, nil, log)

	userID := testutil.InsertUser(t, db.Conn(), "deniz", "Deniz", "Arslan")
	accID := testutil.InsertAccount(t, db.Conn(), userID, "TRY", "12000.00", "")
	balance := func() decimal.Decimal { return testutil.Balance(t, db.Conn(), accID) }
	return svc, balance, userID, accID
}

func TestCreateTimeDeposit_OverrideRate(t *testing.T) {
	svc, balance, userID, accID := setup(t, testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)})
	ctx := context.Background()

	dep, err := svc.CreateTimeDeposit(ctx, userID, DepositRequest{
		SourceAccountID: accID,
		Amount:          decimal.NewFromInt(10000),
		TermMonths:      6,
		AnnualRate:      decimal.RequireFromString("0.30"),
	})
	require.NoError(t, err)

	assert.Equal(t, "11500.00", dep.MaturityAmount.StringFixed(2))
	assert.Equal(t, domain.CloseAndTransfer, dep.MaturityAction)
	assert.True(t, dep.IsActive)
	assert.Equal(t, dep.StartDate.AddDate(0, 6, 0), dep.EndDate)
	assert.Equal(t, "2000.00", balance().StringFixed(2))

	closed, err := svc.CloseDepositEarly(ctx, userID, dep.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.Equal(t, "12000.00", balance().StringFixed(2))

	_, err = svc.CloseDepositEarly(ctx, userID, dep.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, "12000.00", balance().StringFixed(2))

	list, err := svc.ListDeposits(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
}

func TestCreateTimeDeposit_PolicyRate(t *testing.T) {
	svc, _, userID, accID := setup(t, testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)})

	dep, err := svc.CreateTimeDeposit(context.Background(), userID, DepositRequest{
		SourceAccountID: accID,
		Amount:          decimal.NewFromInt(1000),
		TermMonths:      12,
		MaturityAction:  "renewall",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.34", dep.InterestRate.String())
	assert.Equal(t, "1340.00", dep.MaturityAmount.StringFixed(2))
	assert.Equal(t, domain.RenewAll, dep.MaturityAction)
}

func TestCreateTimeDeposit_Rejections(t *testing.T) {
	svc, balance, userID, accID := setup(t, testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)})
	ctx := context.Background()

	tests := []struct {
		name string
		req  DepositRequest
		kind error
	}{
		{"insufficient funds", DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(20000), TermMonths: 6}, domain.ErrInvalidState},
		{"term too long", DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(100), TermMonths: 61}, domain.ErrInvalidState},
		{"rate out of range", DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(100), TermMonths: 6, AnnualRate: decimal.NewFromInt(2)}, domain.ErrInvalidState},
		{"unknown maturity action", DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(100), TermMonths: 6, MaturityAction: "Spend"}, domain.ErrInvalidState},
		{"missing account", DepositRequest{SourceAccountID: 999, Amount: decimal.NewFromInt(100), TermMonths: 6}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTimeDeposit(ctx, userID, tt.req)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}

	assert.Equal(t, "12000.00", balance().StringFixed(2))
	list, err := svc.ListDeposits(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCloseDepositEarly_Ownership(t *testing.T) {
	svc, _, userID, accID := setup(t, testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)})
	ctx := context.Background()

	dep, err := svc.CreateTimeDeposit(ctx, userID, DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(100), TermMonths: 3})
	require.NoError(t, err)

	_, err = svc.CloseDepositEarly(ctx, userID+1, dep.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = svc.CloseDepositEarly(ctx, userID, 4242)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPolicyRateFailure(t *testing.T) {
	svc, balance, userID, accID := setup(t, testutil.FakePolicyRate{Err: errors.New("feed down")})
	ctx := context.Background()

	_, err := svc.CalculateDeposit(ctx, CalculationRequest{Amount: decimal.NewFromInt(1000), TermMonths: 6})
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	_, err = svc.CreateTimeDeposit(ctx, userID, DepositRequest{SourceAccountID: accID, Amount: decimal.NewFromInt(1000), TermMonths: 6})
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))
	assert.Equal(t, "12000.00", balance().StringFixed(2))

	preview, err := svc.CalculateDeposit(ctx, CalculationRequest{Amount: decimal.NewFromInt(1000), TermMonths: 12, AnnualRate: decimal.RequireFromString("0.40")})
	require.NoError(t, err)
	assert.Equal(t, "1400.00", preview.MaturityAmount.StringFixed(2))
	assert.Equal(t, "40", preview.AnnualInterestRatePercent.String())
}
