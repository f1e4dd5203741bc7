// Package market holds the shared market asset reference table and the
// per-user watch list of tracked assets.
package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

const assetColumns = `id, symbol, name, asset_type, exchange, currency, source_api, api_symbol`

// Repository handles market_assets and tracked_assets
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new market repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "market").Logger(),
	}
}

// DB returns the ledger connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db
	}
	return q
}

// EnsureAsset inserts asset unless its symbol is already known and returns the stored row.
// The first writer of a symbol wins; later definitions are ignored.
func (r *Repository) EnsureAsset(ctx context.Context, q database.Querier, asset domain.MarketAsset) (*domain.MarketAsset, error) {
	q = r.querier(q)
	_, err := q.ExecContext(ctx, `
		INSERT INTO market_assets (symbol, name, asset_type, exchange, currency, source_api, api_symbol)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO NOTHING
	`, asset.Symbol, asset.Name, string(asset.Type), asset.Exchange, asset.Currency, asset.SourceAPI, asset.APISymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to insert market asset %s: %w", asset.Symbol, err)
	}

	stored, err := r.GetBySymbol(ctx, q, asset.Symbol)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("market asset %s missing after insert", asset.Symbol)
	}
	return stored, nil
}

// GetByID returns nil when the asset does not exist
func (r *Repository) GetByID(ctx context.Context, q database.Querier, id int64) (*domain.MarketAsset, error) {
	row := r.querier(q).QueryRowContext(ctx, "SELECT "+assetColumns+" FROM market_assets WHERE id = ?", id)
	asset, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market asset %d: %w", id, err)
	}
	return asset, nil
}

// GetBySymbol returns nil when the symbol is unknown
func (r *Repository) GetBySymbol(ctx context.Context, q database.Querier, symbol string) (*domain.MarketAsset, error) {
	row := r.querier(q).QueryRowContext(ctx, "SELECT "+assetColumns+" FROM market_assets WHERE symbol = ?", symbol)
	asset, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market asset %s: %w", symbol, err)
	}
	return asset, nil
}

// Track adds assetID to the user's watch list. A nil sortOrder appends after the current last entry.
// Tracking an already tracked asset only updates its sort order.
func (r *Repository) Track(ctx context.Context, userID, assetID int64, sortOrder *int) (int, error) {
	var order int
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		if sortOrder != nil {
			order = *sortOrder
		} else {
			var max sql.NullInt64
			if err := tx.QueryRowContext(ctx,
				"SELECT MAX(sort_order) FROM tracked_assets WHERE user_id = ?", userID).Scan(&max); err != nil {
				return fmt.Errorf("failed to read max sort order: %w", err)
			}
			if max.Valid {
				order = int(max.Int64) + 1
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_assets (user_id, market_asset_id, sort_order, tracked_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, market_asset_id) DO UPDATE SET sort_order = excluded.sort_order
		`, userID, assetID, order, time.Now().UTC().Unix())
		if err != nil {
			return fmt.Errorf("failed to track asset %d: %w", assetID, err)
		}
		return nil
	})
	return order, err
}

// Untrack removes assetID from the watch list; it reports whether a row was removed
func (r *Repository) Untrack(ctx context.Context, userID, assetID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM tracked_assets WHERE user_id = ? AND market_asset_id = ?", userID, assetID)
	if err != nil {
		return false, fmt.Errorf("failed to untrack asset %d: %w", assetID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListTracked returns the watch list ordered by sort order
func (r *Repository) ListTracked(ctx context.Context, userID int64) ([]domain.TrackedAsset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.symbol, a.name, a.asset_type, a.exchange, a.currency, a.source_api, a.api_symbol,
			t.sort_order, t.tracked_at
		FROM tracked_assets t
		JOIN market_assets a ON a.id = t.market_asset_id
		WHERE t.user_id = ?
		ORDER BY t.sort_order, a.symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked assets: %w", err)
	}
	defer rows.Close()

	tracked := make([]domain.TrackedAsset, 0)
	for rows.Next() {
		var t domain.TrackedAsset
		var assetType string
		var trackedAt int64
		if err := rows.Scan(&t.Asset.ID, &t.Asset.Symbol, &t.Asset.Name, &assetType, &t.Asset.Exchange,
			&t.Asset.Currency, &t.Asset.SourceAPI, &t.Asset.APISymbol, &t.SortOrder, &trackedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracked asset: %w", err)
		}
		t.UserID = userID
		t.Asset.Type = domain.AssetType(assetType)
		t.TrackedAt = time.Unix(trackedAt, 0).UTC()
		tracked = append(tracked, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked assets: %w", err)
	}
	return tracked, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row rowScanner) (*domain.MarketAsset, error) {
	var a domain.MarketAsset
	var assetType string
	if err := row.Scan(&a.ID, &a.Symbol, &a.Name, &assetType, &a.Exchange, &a.Currency, &a.SourceAPI, &a.APISymbol); err != nil {
		return nil, err
	}
	a.Type = domain.AssetType(assetType)
	return &a, nil
}
