package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheus3301/jobdesk/internal/model"
	"github.com/matheus3301/jobdesk/internal/notify"
	"github.com/matheus3301/jobdesk/internal/session"
	"github.com/matheus3301/jobdesk/internal/store"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif", "n"},
	Short:   "List and manage your notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent notifications",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(env *cliEnv, e *notify.Engine) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		e.LoadRecent(ctx)
		e.LoadUnreadCount(ctx)
		snap := e.Snapshot()
		if snap.Err != nil {
			return snap.Err
		}
		if jsonFlag {
			return outputJSON(snapshotJSON(snap))
		}
		return printNotifications(snap.Items, snap.UnreadCount)
	}),
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread counter",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(env *cliEnv, e *notify.Engine) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		n := e.LoadUnreadCount(ctx)
		if err := e.Snapshot().Err; err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(map[string]int{"unreadCount": n})
		}
		fmt.Println(n)
		return nil
	}),
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: withEngineID(func(env *cliEnv, e *notify.Engine, id model.ID) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		if err := e.MarkRead(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Notification %d marked as read.\n", id)
		return nil
	}),
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	RunE: withEngine(func(env *cliEnv, e *notify.Engine) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		if err := e.MarkAllRead(ctx); err != nil {
			return err
		}
		fmt.Println("All notifications marked as read.")
		return nil
	}),
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one notification",
	Args:  cobra.ExactArgs(1),
	RunE: withEngineID(func(env *cliEnv, e *notify.Engine, id model.ID) error {
		ctx, cancel := env.requestContext()
		defer cancel()
		if err := e.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Notification %d deleted.\n", id)
		return nil
	}),
}

var notificationsCachedCmd = &cobra.Command{
	Use:   "cached",
	Short: "Show the snapshot last mirrored by the daemon, without contacting the backend",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsCached,
}

func init() {
	notificationsCmd.AddCommand(
		notificationsListCmd,
		notificationsUnreadCmd,
		notificationsReadCmd,
		notificationsReadAllCmd,
		notificationsDeleteCmd,
		notificationsCachedCmd,
	)
	rootCmd.AddCommand(notificationsCmd)
}

func withEngine(fn func(*cliEnv, *notify.Engine) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := env.identity()
		if err != nil {
			return err
		}
		e, err := notify.NewEngine(env.client, id.UserID,
			notify.WithLogger(env.logger),
			notify.WithRecentLimit(env.profile.RecentLimit),
		)
		if err != nil {
			return err
		}
		return fn(env, e)
	}
}

func withEngineID(fn func(*cliEnv, *notify.Engine, model.ID) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid notification id %q", args[0])
		}
		return withEngine(func(env *cliEnv, e *notify.Engine) error {
			return fn(env, e, model.ID(n))
		})(cmd, args)
	}
}

func runNotificationsCached(_ *cobra.Command, _ []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	id, err := env.identity()
	if err != nil {
		return err
	}

	name := env.name
	dbPath := session.DBPath(name)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no local mirror for session %q; start the daemon with 'jobdesk daemon start'", name)
	}
	db, err := store.OpenMigrated(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snap, err := db.LoadSnapshot(id.UserID)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("nothing mirrored yet for user %d", id.UserID)
	}
	if jsonFlag {
		return outputJSON(map[string]any{
			"userId":      snap.UserID,
			"items":       snap.Items,
			"unreadCount": snap.UnreadCount,
			"updatedAt":   snap.UpdatedAt,
		})
	}
	fmt.Printf("Snapshot from %s\n\n", snap.UpdatedAt.Local().Format(time.DateTime))
	return printNotifications(snap.Items, snap.UnreadCount)
}

func snapshotJSON(snap notify.Snapshot) map[string]any {
	return map[string]any{
		"userId":      snap.UserID,
		"items":       snap.Items,
		"unreadCount": snap.UnreadCount,
	}
}

func printNotifications(items []model.Notification, unread int) error {
	fmt.Printf("%d unread\n", unread)
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return nil
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\t\tTYPE\tTITLE\tCREATED")
	for _, n := range items {
		mark := ""
		if !n.IsRead {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			n.ID, mark, n.TypeID, n.Heading(), n.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
