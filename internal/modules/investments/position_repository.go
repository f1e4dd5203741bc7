package investments

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

// Holding is an open position together with the asset it holds
type Holding struct {
	Position domain.Position    `json:"position"`
	Asset    domain.MarketAsset `json:"asset"`
}

// PositionRepository handles position database operations.
// A position row exists only while its quantity is positive.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

func (r *PositionRepository) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db
	}
	return q
}

// Get returns the user's position in assetID, or nil when none is open
func (r *PositionRepository) Get(ctx context.Context, q database.Querier, userID, assetID int64) (*domain.Position, error) {
	var p domain.Position
	var updated int64
	err := r.querier(q).QueryRowContext(ctx, `
		SELECT id, user_id, market_asset_id, quantity, average_cost, total_cost_user_currency, last_updated
		FROM positions WHERE user_id = ? AND market_asset_id = ?
	`, userID, assetID).Scan(&p.ID, &p.UserID, &p.MarketAssetID, &p.Quantity, &p.AverageCost, &p.TotalCostInUserCurrency, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position for asset %d: %w", assetID, err)
	}
	p.LastUpdated = time.Unix(updated, 0).UTC()
	return &p, nil
}

// Save inserts a new position (ID == 0) or updates an existing one
func (r *PositionRepository) Save(ctx context.Context, q database.Querier, p *domain.Position) error {
	if !p.Quantity.IsPositive() {
		return fmt.Errorf("refusing to store position with quantity %s", p.Quantity)
	}
	p.LastUpdated = time.Now().UTC().Truncate(time.Second)
	q = r.querier(q)

	if p.ID != 0 {
		_, err := q.ExecContext(ctx, `
			UPDATE positions SET quantity = ?, average_cost = ?, total_cost_user_currency = ?, last_updated = ?
			WHERE id = ?
		`, p.Quantity, p.AverageCost, p.TotalCostInUserCurrency, p.LastUpdated.Unix(), p.ID)
		if err != nil {
			return fmt.Errorf("failed to update position %d: %w", p.ID, err)
		}
		return nil
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO positions (user_id, market_asset_id, quantity, average_cost, total_cost_user_currency, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.UserID, p.MarketAssetID, p.Quantity, p.AverageCost, p.TotalCostInUserCurrency, p.LastUpdated.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read position id: %w", err)
	}
	return nil
}

// Delete removes a liquidated position
func (r *PositionRepository) Delete(ctx context.Context, q database.Querier, id int64) error {
	if _, err := r.querier(q).ExecContext(ctx, "DELETE FROM positions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete position %d: %w", id, err)
	}
	return nil
}

// ListHoldings returns the user's open positions with their asset metadata
func (r *PositionRepository) ListHoldings(ctx context.Context, userID int64) ([]Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.market_asset_id, p.quantity, p.average_cost, p.total_cost_user_currency, p.last_updated,
			a.id, a.symbol, a.name, a.asset_type, a.exchange, a.currency, a.source_api, a.api_symbol
		FROM positions p
		JOIN market_assets a ON a.id = p.market_asset_id
		WHERE p.user_id = ?
		ORDER BY a.symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	holdings := make([]Holding, 0)
	for rows.Next() {
		var h Holding
		var updated int64
		var assetType string
		if err := rows.Scan(&h.Position.ID, &h.Position.UserID, &h.Position.MarketAssetID, &h.Position.Quantity,
			&h.Position.AverageCost, &h.Position.TotalCostInUserCurrency, &updated,
			&h.Asset.ID, &h.Asset.Symbol, &h.Asset.Name, &assetType, &h.Asset.Exchange, &h.Asset.Currency,
			&h.Asset.SourceAPI, &h.Asset.APISymbol); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		h.Position.LastUpdated = time.Unix(updated, 0).UTC()
		h.Asset.Type = domain.AssetType(assetType)
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return holdings, nil
}
