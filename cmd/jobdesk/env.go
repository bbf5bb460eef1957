package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/logging"
	"github.com/matheus3301/jobdesk/internal/session"
)

// cliEnv is what every backend command needs: the session, its profile
// and a client.
type cliEnv struct {
	name    string
	profile *config.Profile
	client  *api.Client
	logger  *zap.Logger
}

func loadEnv() (*cliEnv, error) {
	name, err := session.Resolve(sessionFlag)
	if err != nil {
		return nil, err
	}
	profile, err := config.LoadProfile(session.ProfilePath(name))
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", name, err)
	}
	logger := logging.NewConsole(zapcore.WarnLevel)

	opts := profile.ClientOptions()
	opts.Logger = logger
	client, err := api.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &cliEnv{name: name, profile: profile, client: client, logger: logger}, nil
}

func (e *cliEnv) identity() (session.Identity, error) {
	id, err := session.ResolveIdentity(e.profile)
	if err != nil {
		return session.Identity{}, fmt.Errorf("session %q: %w", e.name, err)
	}
	return id, nil
}

// requestContext bounds a one-shot command by the profile timeout plus
// some slack for the concurrent catalog fetches.
func (e *cliEnv) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.profile.RequestTimeout.Duration+5*time.Second)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
