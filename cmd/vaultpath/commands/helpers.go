package commands

import (
	"context"

	"github.com/systmms/vaultpath/internal/config"
	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/internal/logging"
	"github.com/systmms/vaultpath/internal/metrics"
	"github.com/systmms/vaultpath/internal/secure"
	"github.com/systmms/vaultpath/internal/storage"
	"github.com/systmms/vaultpath/internal/transport"
	"github.com/systmms/vaultpath/pkg/notation"
	"github.com/systmms/vaultpath/pkg/secrets"
)

// Runtime carries the global flags shared by every command. Populated by
// the root command's PersistentPreRun.
type Runtime struct {
	ConfigPath  string
	ProfileName string
	Debug       bool
	NoColor     bool
	Metrics     bool
	Logger      *logging.Logger

	// newFetcher is the seam tests use to substitute a fake vault.
	newFetcher func(ctx context.Context, rt *Runtime) (secrets.Fetcher, error)
}

func (rt *Runtime) buildResolver(ctx context.Context) (*notation.Resolver, error) {
	newFetcher := rt.newFetcher
	if newFetcher == nil {
		newFetcher = buildTransport
	}
	fetcher, err := newFetcher(ctx, rt)
	if err != nil {
		return nil, err
	}
	return notation.NewResolver(fetcher, notation.WithLogger(rt.Logger)), nil
}

// buildTransport assembles the real fetch path: profile, storage backend,
// client token, HTTP transport.
func buildTransport(ctx context.Context, rt *Runtime) (secrets.Fetcher, error) {
	if rt.Metrics {
		metrics.Init()
	}

	cfg, err := config.Load(rt.ConfigPath)
	if err != nil {
		return nil, err
	}
	profile, err := cfg.Select(rt.ProfileName)
	if err != nil {
		return nil, err
	}

	store, err := profile.OpenStorage(ctx)
	if err != nil {
		return nil, err
	}

	token, err := store.Get(ctx, storage.KeyClientKey)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.UserError{
			Message:    "no client credential stored for this profile",
			Suggestion: "Run 'vaultpath init' with a one-time token first",
		}
	}

	opts := []transport.Option{transport.WithLogger(rt.Logger)}
	if profile.CachePath != "" {
		opts = append(opts, transport.WithCache(profile.CachePath))
	}
	return transport.New("https://"+profile.Hostname, secure.NewBufferFromString(token), opts...), nil
}
