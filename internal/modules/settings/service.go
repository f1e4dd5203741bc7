package settings

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/domain"
)

// Service merges stored settings with SettingDefaults
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// GetAll returns every known setting, stored values overriding defaults
func (s *Service) GetAll() (map[string]interface{}, error) {
	stored, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(SettingDefaults))
	for key, def := range SettingDefaults {
		result[key] = def
		raw, ok := stored[key]
		if !ok {
			continue
		}
		if _, isFloat := def.(float64); isFloat {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				result[key] = f
			}
			continue
		}
		result[key] = raw
	}
	return result, nil
}

// Set validates key against SettingDefaults before storing it
func (s *Service) Set(key, value string) error {
	def, ok := SettingDefaults[key]
	if !ok {
		return domain.NotFound("unknown setting: %s", key)
	}
	if _, isFloat := def.(float64); isFloat {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return domain.InvalidState("setting %s expects a number, got %q", key, value)
		}
	}
	if err := s.repo.Set(key, value); err != nil {
		return err
	}
	s.log.Info().Str("key", key).Msg("Setting updated")
	return nil
}

// Repository exposes the underlying repository
func (s *Service) Repository() *Repository {
	return s.repo
}
