package market

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
)

// AssetRequest describes an asset by symbol and its price routing metadata
type AssetRequest struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Type      string `json:"asset_type"`
	Exchange  string `json:"exchange"`
	Currency  string `json:"currency"`
	SourceAPI string `json:"source_api"`
	APISymbol string `json:"api_symbol"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

// Service manages market assets and watch lists
type Service struct {
	repo         *Repository
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new market service
func NewService(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		eventManager: eventManager,
		log:          log.With().Str("service", "market").Logger(),
	}
}

// Repository exposes the market repository
func (s *Service) Repository() *Repository {
	return s.repo
}

// EnsureAsset validates req and returns the shared row for its symbol, creating it on first sight
func (s *Service) EnsureAsset(ctx context.Context, req AssetRequest) (*domain.MarketAsset, error) {
	asset, err := assetFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.repo.EnsureAsset(ctx, nil, asset)
}

// GetAsset returns an asset by id
func (s *Service) GetAsset(ctx context.Context, id int64) (*domain.MarketAsset, error) {
	asset, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.NotFound("market asset %d not found", id)
	}
	return asset, nil
}

// TrackAsset adds an asset to the user's watch list, registering the asset if needed
func (s *Service) TrackAsset(ctx context.Context, userID int64, req AssetRequest) (*domain.TrackedAsset, error) {
	asset, err := s.EnsureAsset(ctx, req)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.Track(ctx, userID, asset.ID, req.SortOrder)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", userID).Str("symbol", asset.Symbol).Int("sort_order", order).Msg("Asset tracked")
	s.eventManager.EmitForUser(userID, events.AssetTracked, "market", map[string]interface{}{"symbol": asset.Symbol})

	return &domain.TrackedAsset{UserID: userID, Asset: *asset, SortOrder: order}, nil
}

// UntrackAsset removes symbol from the user's watch list
func (s *Service) UntrackAsset(ctx context.Context, userID int64, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	asset, err := s.repo.GetBySymbol(ctx, nil, symbol)
	if err != nil {
		return err
	}
	if asset == nil {
		return domain.NotFound("market asset %s not found", symbol)
	}
	removed, err := s.repo.Untrack(ctx, userID, asset.ID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.NotFound("%s is not on the watch list", symbol)
	}
	s.eventManager.EmitForUser(userID, events.AssetUntracked, "market", map[string]interface{}{"symbol": symbol})
	return nil
}

// ListTracked returns the user's watch list
func (s *Service) ListTracked(ctx context.Context, userID int64) ([]domain.TrackedAsset, error) {
	return s.repo.ListTracked(ctx, userID)
}

func assetFromRequest(req AssetRequest) (domain.MarketAsset, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return domain.MarketAsset{}, domain.InvalidState("asset symbol is required")
	}
	assetType, err := domain.ParseAssetType(req.Type)
	if err != nil {
		return domain.MarketAsset{}, err
	}
	currency, err := domain.NormalizeCurrency(req.Currency)
	if err != nil {
		return domain.MarketAsset{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = symbol
	}
	apiSymbol := strings.TrimSpace(req.APISymbol)
	if apiSymbol == "" {
		apiSymbol = symbol
	}
	return domain.MarketAsset{
		Symbol:    symbol,
		Name:      name,
		Type:      assetType,
		Exchange:  strings.TrimSpace(req.Exchange),
		Currency:  currency,
		SourceAPI: strings.TrimSpace(req.SourceAPI),
		APISymbol: apiSymbol,
	}, nil
}
