package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var relinkDate string

var relinkCmd = &cobra.Command{
	Use:   "relink",
	Short: "Rebuild one day's trades from its persisted orders",
	Long: `Rebuild the trades of a single batch day from the filled and partially
filled orders already stored in the warehouse. Any existing trades for
that day are removed first, so relinking a day is safe to repeat.

This is a recovery tool for runs that loaded orders but failed before
the trades table was written.

Example:
  rampgen relink --date 2026-07-15 --warehouse "postgres://..."`,
	RunE: runRelink,
}

func init() {
	relinkCmd.Flags().StringVar(&relinkDate, "date", "",
		"batch day to rebuild, as YYYY-MM-DD (required)")
}

func runRelink(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if relinkDate == "" {
		return fmt.Errorf("--date is required")
	}
	day, err := time.ParseInLocation("2006-01-02", relinkDate, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", relinkDate)
	}

	ctx := context.Background()
	o, sink, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	n, err := o.Relink(ctx, day)
	if err != nil {
		return err
	}
	cmd.Printf("Rebuilt %d trades for %s\n", n, relinkDate)

	return nil
}
