package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCatchUp bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and load the next pending batch day",
	Long: `Generate one simulated calendar day of deposits, withdrawals, orders,
trades and ramp transactions, and append it to the warehouse. The
batch date advances one day per run; when the pipeline has reached
today it reports that it is caught up and loads nothing.

With --catch-up the pipeline keeps running until no day is pending,
which backfills the full history window in one invocation.

Example:
  rampgen run --catch-up --warehouse "postgres://..."`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runCatchUp, "catch-up", false,
		"run batches until the pipeline is caught up")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o, sink, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	if runCatchUp {
		results, err := o.CatchUp(ctx)
		for _, r := range results {
			cmd.Printf("Loaded %s: %d rows\n", r.Date.Format("2006-01-02"), r.Total())
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			cmd.Println("Already caught up")
		}
		return nil
	}

	result, err := o.RunOnce(ctx)
	if err != nil {
		return err
	}
	if result.CaughtUp {
		cmd.Println("Already caught up")
		return nil
	}
	cmd.Printf("Loaded %s: %d rows\n", result.Date.Format("2006-01-02"), result.Total())

	return nil
}
