package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rampworks/rampgen/internal/warehouse"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline position and warehouse row counts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	o, sink, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	s, err := o.Status(ctx)
	if err != nil {
		return err
	}

	if s.HasRun {
		cmd.Printf("Last processed day: %s\n", s.LastProcessed.Format("2006-01-02"))
	} else {
		cmd.Println("Last processed day: never run")
	}
	if s.CaughtUp {
		cmd.Println("Next batch day:     caught up")
	} else {
		cmd.Printf("Next batch day:     %s\n", s.NextBatch.Format("2006-01-02"))
	}

	cmd.Println()
	cmd.Println("Warehouse row counts:")
	for _, table := range warehouse.AllTables {
		cmd.Printf("  %-18s %d\n", table, s.TableCounts[table])
	}

	return nil
}
