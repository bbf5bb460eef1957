// Command jobdesk searches the job catalog and manages notifications
// from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	sessionFlag string
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "jobdesk",
	Short:         "Job board search and notifications in the terminal",
	Long:          "jobdesk searches companies and jobs as you type and keeps your notification inbox and unread counter in sync with the job board backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
}

func main() {
	// JOBDESK_* variables may live in a local .env file.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
