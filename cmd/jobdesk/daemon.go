package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheus3301/jobdesk/internal/daemon"
	"github.com/matheus3301/jobdesk/internal/lock"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/store"
)

const (
	daemonStartTimeout = 10 * time.Second

	// refreshLogSchema is the first mirror schema with the refresh log.
	refreshLogSchema = 2
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Inspect or start the background refresher",
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether jobdeskd runs for the session and how its refreshes went",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start jobdeskd for the session unless it already runs",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStart,
}

func init() {
	daemonCmd.AddCommand(daemonStatusCmd, daemonStartCmd)
	rootCmd.AddCommand(daemonCmd)
}

type daemonStatus struct {
	Session       string          `json:"session"`
	Running       bool            `json:"running"`
	PID           int             `json:"pid,omitempty"`
	Since         *time.Time      `json:"since,omitempty"`
	Notifications string          `json:"notifications"`
	MirrorSchema  uint            `json:"mirrorSchema,omitempty"`
	Refreshes     []refreshStatus `json:"refreshes,omitempty"`
}

type refreshStatus struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	name, err := session.Resolve(sessionFlag)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := daemonStatus{Session: name, Notifications: "UNKNOWN"}
	socket := session.SocketPath(name)
	st.Running = daemon.Alive(ctx, socket)
	if st.Running {
		if s, err := daemon.Probe(ctx, socket, daemon.NotificationsService); err == nil {
			st.Notifications = s.String()
		}
	}
	if info, ok, err := lock.Inspect(session.Dir(name)); err == nil && ok {
		st.PID = info.PID
		if !info.Since.IsZero() {
			since := info.Since
			st.Since = &since
		}
	}
	st.MirrorSchema, st.Refreshes = loadMirror(name)

	if jsonFlag {
		return outputJSON(st)
	}
	fmt.Printf("Session:       %s\n", st.Session)
	fmt.Printf("Running:       %v\n", st.Running)
	if st.PID != 0 {
		fmt.Printf("PID:           %d\n", st.PID)
	}
	if st.Since != nil {
		fmt.Printf("Since:         %s\n", st.Since.Local().Format(time.DateTime))
	}
	fmt.Printf("Notifications: %s\n", st.Notifications)
	if st.MirrorSchema != 0 {
		fmt.Printf("Mirror schema: v%d\n", st.MirrorSchema)
	}
	if len(st.Refreshes) > 0 {
		fmt.Println("Recent refreshes:")
		for _, r := range st.Refreshes {
			outcome := "ok"
			if !r.OK {
				outcome = "failed: " + r.Error
			}
			fmt.Printf("  %s  %s\n", r.At.Local().Format(time.DateTime), outcome)
		}
	}
	return nil
}

// loadMirror reads the schema version and refresh history from the local
// mirror without migrating it. Missing profile, identity or database just
// yield nothing.
func loadMirror(name string) (uint, []refreshStatus) {
	dbPath := session.DBPath(name)
	if _, err := os.Stat(dbPath); err != nil {
		return 0, nil
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return 0, nil
	}
	defer func() { _ = db.Close() }()

	version, ok, err := db.SchemaVersion()
	if err != nil || !ok || version < refreshLogSchema {
		return version, nil
	}
	env, err := loadEnv()
	if err != nil {
		return version, nil
	}
	id, err := env.identity()
	if err != nil {
		return version, nil
	}
	records, err := db.RecentRefreshes(id.UserID, 5)
	if err != nil {
		return version, nil
	}
	out := make([]refreshStatus, 0, len(records))
	for _, r := range records {
		out = append(out, refreshStatus{OK: r.OK, Error: r.Error, At: r.At})
	}
	return version, out
}

func runDaemonStart(_ *cobra.Command, _ []string) error {
	name, err := session.Resolve(sessionFlag)
	if err != nil {
		return err
	}
	socket := session.SocketPath(name)
	ctx := context.Background()
	if daemon.Alive(ctx, socket) {
		fmt.Printf("jobdeskd already running for session %q\n", name)
		return nil
	}

	fmt.Fprintf(os.Stderr, "starting jobdeskd for session %q...\n", name)
	if err := startDaemon(name); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if !daemon.WaitAlive(ctx, socket, daemonStartTimeout) {
		return errors.New("daemon did not become ready; see " + session.LogPath(name))
	}
	fmt.Println("jobdeskd is up.")
	return nil
}

// startDaemon launches jobdeskd next to this binary, falling back to PATH.
func startDaemon(name string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	bin := filepath.Join(filepath.Dir(executable), "jobdeskd")
	if _, err := os.Stat(bin); err != nil {
		bin = "jobdeskd"
	}

	cmd := exec.Command(bin, "--session", name)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
