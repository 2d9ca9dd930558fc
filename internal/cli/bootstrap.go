package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rampworks/rampgen/internal/logging"
)

var (
	bootstrapUsers int
	bootstrapForce bool
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the warehouse schema and load the user population",
	Long: `Create the warehouse tables and load the one-time user population
that all later batches reference. Bootstrap refuses to run against a
warehouse that already holds users unless --force is given, in which
case all existing data is dropped first.

Example:
  rampgen bootstrap --users 500 --warehouse "postgres://..."`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().IntVar(&bootstrapUsers, "users", 0,
		"number of users to create (default from config)")
	bootstrapCmd.Flags().BoolVar(&bootstrapForce, "force", false,
		"drop existing data and reload from scratch")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if bootstrapUsers > 0 {
		cfg.Pipeline.BootstrapUsers = bootstrapUsers
	}

	if err := cfg.ValidateBootstrap(); err != nil {
		return err
	}

	ctx := context.Background()
	o, sink, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	n, err := o.Bootstrap(ctx, bootstrapForce)
	if err != nil {
		return err
	}

	logging.Info().
		Int64("users", n).
		Msg("Bootstrap complete")
	cmd.Printf("Loaded %d users\n", n)

	return nil
}
