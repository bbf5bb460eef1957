package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheus3301/jobdesk/internal/api"
	"github.com/matheus3301/jobdesk/internal/logging"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/tui"
	"github.com/matheus3301/jobdesk/internal/tui/model"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive search and notification screen",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	if err := session.EnsureDir(env.name); err != nil {
		return err
	}
	// The terminal belongs to tview; logs go to the session directory only.
	logger, err := logging.New(session.TUILogPath(env.name), env.name, logging.WithoutStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := model.Options{
		PollInterval: env.profile.PollInterval.Duration,
		Debounce:     env.profile.SearchDebounce.Duration,
		RecentLimit:  env.profile.RecentLimit,
		Logger:       logger,
	}
	user := ""
	id, err := session.ResolveIdentity(env.profile)
	switch {
	case err == nil:
		opts.UserID = id.UserID
		user = fmt.Sprintf("user %d", id.UserID)
	case errors.Is(err, session.ErrNoIdentity):
		logger.Info("no identity, notifications disabled")
	default:
		return err
	}

	clientOpts := env.profile.ClientOptions()
	clientOpts.Logger = logger
	client, err := api.NewClient(clientOpts)
	if err != nil {
		return err
	}
	vm, err := model.NewViewModel(client, opts)
	if err != nil {
		return err
	}
	return tui.NewApp(vm, env.name, user, logger).Run()
}
