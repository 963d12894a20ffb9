// Package analysis resolves fights and players of a report and runs the
// attribution replay for them.
package analysis

import (
	"errors"

	"github.com/codexvs/codexvs/internal/attribution"
	"github.com/codexvs/codexvs/internal/buff"
	"github.com/codexvs/codexvs/internal/player"
	"github.com/codexvs/codexvs/internal/wcl"
)

var (
	ErrFightNotFound  = errors.New("fight not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// Settings are the replay parameters shared by every analyzed player.
type Settings struct {
	Catalog *buff.Catalog
	Engine  attribution.Config
	Player  player.Options

	// Concurrent replays in AnalyzeAll.
	Workers int

	// AnalyzeAll only considers players of this class and main spec.
	// Empty values match any player.
	RequiredClass string
	RequiredSpec  string
}

// DefaultSettings returns the built-in Blood Death Knight setup.
func DefaultSettings() Settings {
	return Settings{
		Catalog:       buff.DefaultCatalog(),
		Engine:        attribution.DefaultConfig(),
		Player:        player.DefaultOptions(),
		Workers:       4,
		RequiredClass: "DeathKnight",
		RequiredSpec:  "Blood",
	}
}

// Service runs analyses against one API.
type Service struct {
	api      wcl.API
	settings Settings
}

// NewService creates a Service. Workers below 1 are treated as 1.
func NewService(api wcl.API, settings Settings) *Service {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	if settings.Catalog == nil {
		settings.Catalog = buff.DefaultCatalog()
	}
	return &Service{api: api, settings: settings}
}

// API returns the underlying API.
func (s *Service) API() wcl.API {
	return s.api
}
