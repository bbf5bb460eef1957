package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matheus3301/jobdesk/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search companies and jobs",
	Long:  fmt.Sprintf("Search companies by name or location and jobs by company, job type or location. Queries shorter than %d characters return nothing; each list holds at most %d matches.", search.MinQueryLength, search.MaxResults),
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := env.requestContext()
	defer cancel()

	agg := search.NewAggregator(env.client, search.WithLogger(env.logger))
	result, err := agg.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if st := agg.State(); st.Err != nil {
		return fmt.Errorf("search failed: %w", st.Err)
	}

	if jsonFlag {
		return outputJSON(result)
	}
	if !result.HasResults() {
		fmt.Println("No matches.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(result.Companies) > 0 {
		_, _ = fmt.Fprintln(w, "COMPANY\tLOCATION")
		for _, c := range result.Companies {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Location)
		}
		_, _ = fmt.Fprintln(w)
	}
	if len(result.Jobs) > 0 {
		_, _ = fmt.Fprintln(w, "JOB\tCOMPANY\tTYPE\tLOCATION")
		for _, j := range result.Jobs {
			loc := j.Location
			if loc == "" {
				loc = j.CompanyLocation
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", j.ID, j.CompanyName, j.JobTypeName, loc)
		}
	}
	return w.Flush()
}
