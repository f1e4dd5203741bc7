package investments

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	"github.com/fintrack/fintrack/internal/modules/market"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

type fixture struct {
	db      *database.DB
	oracle  *testutil.FakeOracle
	service *Service
	userID  int64
}

func setup(t *testing.T) *fixture {
	db := testutil.NewTestDB(t, "ledger")
	log := zerolog.Nop()
	oracle := testutil.NewFakeOracle()
	poster := ledger.NewPoster(accounts.NewRepository(db.Conn(), log), ledger.NewRepository(db.Conn(), log))
	return &fixture{
		db:     db,
		oracle: oracle,
		service: NewService(poster, NewPositionRepository(db.Conn(), log), market.NewRepository(db.Conn(), log),
			oracle, nil, log),
		userID: testutil.InsertUser(t, db.Conn(), "emre", "Emre", "Çelik"),
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) trade(t *testing.T, accountID, assetID int64, direction, qty, price, currency string) (*InvestmentResult, error) {
	t.Helper()
	return f.service.ExecuteInvestment(context.Background(), f.userID, InvestmentRequest{
		AccountID:     accountID,
		AssetID:       assetID,
		Quantity:      d(qty),
		UnitPrice:     d(price),
		PriceCurrency: currency,
		Direction:     direction,
	})
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "10000.00", "")
	assetID := testutil.InsertAsset(t, conn, "THYAO", "Stock", "TRY")

	first, err := f.trade(t, accID, assetID, "Buy", "10", "100", "TRY")
	require.NoError(t, err)
	assert.Equal(t, "100", first.Position.AverageCost.String())
	assert.Equal(t, domain.TxInvestmentBuy, first.Transaction.Type)
	assert.Equal(t, "Buy - 10 THYAO @ 100.0000 TRY", first.Transaction.Description)

	second, err := f.trade(t, accID, assetID, "buy", "30", "200", "")
	require.NoError(t, err)
	assert.Equal(t, first.Position.ID, second.Position.ID)
	assert.Equal(t, "40", second.Position.Quantity.String())
	assert.Equal(t, "175", second.Position.AverageCost.String())
	assert.Equal(t, "7000", second.Position.TotalCostInUserCurrency.String())

	assert.Equal(t, "3000.00", testutil.Balance(t, conn, accID).StringFixed(2))
	assert.Equal(t, 1, testutil.CountRows(t, conn, "positions", ""))
	assert.Equal(t, 2, testutil.CountRows(t, conn, "transactions", "transaction_type = 'InvestmentBuy' AND market_asset_id = ?", assetID))
}

func TestSell_ReducesCostProportionallyAndLiquidates(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "10000.00", "")
	assetID := testutil.InsertAsset(t, conn, "ASELS", "Stock", "TRY")

	_, err := f.trade(t, accID, assetID, "Buy", "10", "100", "TRY")
	require.NoError(t, err)
	_, err = f.trade(t, accID, assetID, "Buy", "30", "200", "TRY")
	require.NoError(t, err)

	partial, err := f.trade(t, accID, assetID, "Sell", "10", "250", "TRY")
	require.NoError(t, err)
	require.NotNil(t, partial.Position)
	assert.Equal(t, "30", partial.Position.Quantity.String())
	assert.Equal(t, "5250", partial.Position.TotalCostInUserCurrency.String())
	assert.Equal(t, "175", partial.Position.AverageCost.String())
	assert.Equal(t, domain.TxInvestmentSell, partial.Transaction.Type)
	assert.Equal(t, "5500.00", testutil.Balance(t, conn, accID).StringFixed(2))

	full, err := f.trade(t, accID, assetID, "Sell", "30", "100", "TRY")
	require.NoError(t, err)
	assert.Nil(t, full.Position)
	assert.Equal(t, 0, testutil.CountRows(t, conn, "positions", ""))
	assert.Equal(t, "8500.00", testutil.Balance(t, conn, accID).StringFixed(2))

	holdings, err := f.service.ListHoldings(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	again, err := f.trade(t, accID, assetID, "Buy", "1", "50", "TRY")
	require.NoError(t, err)
	assert.Equal(t, "50", again.Position.AverageCost.String())
}

func TestSell_Rejections(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "1000.00", "")
	assetID := testutil.InsertAsset(t, conn, "GARAN", "Stock", "TRY")

	_, err := f.trade(t, accID, assetID, "Sell", "1", "10", "TRY")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.trade(t, accID, assetID, "Buy", "5", "10", "TRY")
	require.NoError(t, err)

	_, err = f.trade(t, accID, assetID, "Sell", "5.00000001", "10", "TRY")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	assert.Equal(t, "950.00", testutil.Balance(t, conn, accID).StringFixed(2))
	assert.Equal(t, 1, testutil.CountRows(t, conn, "transactions", ""))
}

func TestBuy_InsufficientFundsMutatesNothing(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "99.99", "")
	assetID := testutil.InsertAsset(t, conn, "SISE", "Stock", "TRY")

	_, err := f.trade(t, accID, assetID, "Buy", "1", "100", "TRY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Contains(t, err.Error(), "insufficient balance")

	assert.Equal(t, "99.99", testutil.Balance(t, conn, accID).StringFixed(2))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "positions", ""))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "transactions", ""))
}

func TestBuy_CrossCurrencyUsesOracleRate(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "100000.00", "")
	assetID := testutil.InsertAsset(t, conn, "AAPL", "Stock", "USD")
	f.oracle.SetPrice("USD/TRY", "32.5", "TRY")

	res, err := f.trade(t, accID, assetID, "Buy", "2", "150", "usd")
	require.NoError(t, err)

	assert.Equal(t, "9750.00", res.Transaction.Amount.StringFixed(2))
	assert.Equal(t, "150", res.Position.AverageCost.String())
	assert.Equal(t, "9750", res.Position.TotalCostInUserCurrency.String())
	assert.Equal(t, "Buy - 2 AAPL @ 150.0000 USD (rate: 32.5000)", res.Transaction.Description)
	assert.Equal(t, "90250.00", testutil.Balance(t, conn, accID).StringFixed(2))
	assert.Equal(t, 1, f.oracle.Calls("USD/TRY"))
}

func TestBuy_OracleFailureAbortsBeforeMutation(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "100000.00", "")
	assetID := testutil.InsertAsset(t, conn, "MSFT", "Stock", "USD")

	_, err := f.trade(t, accID, assetID, "Buy", "1", "400", "USD")
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	f.oracle.SetPrice("USD/TRY", "0", "TRY")
	_, err = f.trade(t, accID, assetID, "Buy", "1", "400", "USD")
	assert.True(t, errors.Is(err, domain.ErrExternalUnavailable))

	assert.Equal(t, "100000.00", testutil.Balance(t, conn, accID).StringFixed(2))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "transactions", ""))
}

func TestExecuteInvestment_Validation(t *testing.T) {
	f := setup(t)
	conn := f.db.Conn()
	accID := testutil.InsertAccount(t, conn, f.userID, "TRY", "1000.00", "")
	assetID := testutil.InsertAsset(t, conn, "KCHOL", "Stock", "TRY")

	_, err := f.trade(t, accID, assetID, "Hold", "1", "1", "TRY")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.trade(t, accID, assetID, "Buy", "0", "1", "TRY")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.trade(t, accID, assetID, "Buy", "1", "-1", "TRY")
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.trade(t, accID, 777, "Buy", "1", "1", "TRY")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.trade(t, 777, assetID, "Buy", "1", "1", "TRY")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestApplySell_FullQuantityIsNil(t *testing.T) {
	p := &domain.Position{Quantity: d("0.12345678"), TotalCostInUserCurrency: d("10")}
	assert.Nil(t, applySell(p, d("0.12345678")))

	rest := applySell(p, d("0.02345678"))
	require.NotNil(t, rest)
	assert.Equal(t, "0.1", rest.Quantity.String())
}
