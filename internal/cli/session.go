package cli

import (
	"fmt"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/entity"
	"github.com/roach88/tabledesk/internal/store"
)

// session is one open database with its engine and entity registry.
type session struct {
	store    *store.Store
	engine   *engine.Engine
	entities *entity.Registry
}

// openSession opens the configured database. Failures are command errors.
func openSession(opts *RootOptions) (*session, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, NewExitError(ExitCommandError, "configuration not loaded")
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, WrapExitError(ExitCommandError, "preparing data directory", err)
	}

	profiles, err := entity.LoadProfiles(cfg.ProfilesDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading entity profiles", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("opening database %s", cfg.DBPath), err)
	}

	eng := engine.New(st, engine.WithLogger(opts.Logger))
	eng.Allow(cfg.AllowedTables...)

	opts.Logger.Debug("database opened", "path", st.Path(), "allowed", eng.AllowedTables())

	return &session{
		store:    st,
		engine:   eng,
		entities: entity.NewRegistry(eng, profiles, entity.WithLogger(opts.Logger)),
	}, nil
}

// Close closes the database.
func (s *session) Close() error {
	return s.store.Close()
}
