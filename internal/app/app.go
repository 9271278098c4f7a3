package app

import (
	"fmt"
	"time"

	"librarium/pkg/domain"
	"librarium/pkg/storage"
	"librarium/pkg/store"
	"librarium/pkg/token"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	// Store overrides DatabaseURL when set, used by tests.
	Store  store.Store
	Tokens *token.Manager
	Covers storage.CoverStore
}

// App is the core application service wiring storage, tokens and the
// library business rules together.
type App struct {
	store  store.Store
	tokens *token.Manager
	covers storage.CoverStore
	now    func() time.Time
}

// New constructs the application with database storage and token management.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	tokens := cfg.Tokens
	if tokens == nil {
		var err error
		tokens, err = token.NewManager(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("init token manager: %w", err)
		}
	}

	return &App{
		store:  dataStore,
		tokens: tokens,
		covers: cfg.Covers,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role domain.UserRole
}

func (a Actor) admin() bool { return a.Role == domain.RoleAdmin }

// Tokens exposes the token manager for the HTTP layer's auth middleware.
func (a *App) Tokens() *token.Manager { return a.tokens }

// Covers exposes the cover store; nil when cover storage is not configured.
func (a *App) Covers() storage.CoverStore { return a.covers }
