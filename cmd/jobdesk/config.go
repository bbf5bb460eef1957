package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/session"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage session profiles",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the profile for the session",
	Long:  "Write profile.toml for the session with the given backend and credentials. Existing files are kept unless --force is set.",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	initBaseURL    string
	initToken      string
	initUserID     int
	initForce      bool
	initSetDefault bool
)

func init() {
	configInitCmd.Flags().StringVar(&initBaseURL, "base-url", "", "backend base URL, e.g. https://jobs.example.com")
	configInitCmd.Flags().StringVar(&initToken, "token", "", "bearer token")
	configInitCmd.Flags().IntVar(&initUserID, "user-id", 0, "user id (read from the token when omitted)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing profile")
	configInitCmd.Flags().BoolVar(&initSetDefault, "default", false, "make this session the default")
	_ = configInitCmd.MarkFlagRequired("base-url")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	name, err := session.Resolve(sessionFlag)
	if err != nil {
		return err
	}
	path := session.ProfilePath(name)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s exists; use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	p := config.DefaultProfile()
	p.BaseURL = initBaseURL
	p.Token = initToken
	p.UserID = initUserID
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := session.ResolveIdentity(p); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; notifications stay disabled\n", err)
	}

	if err := session.EnsureDir(name); err != nil {
		return err
	}
	if err := config.SaveProfile(path, p); err != nil {
		return err
	}
	if initSetDefault {
		if err := config.Save(session.ConfigPath(), &config.Config{DefaultSession: name}); err != nil {
			return err
		}
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
