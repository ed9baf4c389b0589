// Command sinapp serves the in-person SIN application wizard for staff.
//
// Usage:
//
//	sinapp serve -c sinapp.yaml
//	sinapp migrate -c sinapp.yaml
//	sinapp user add -c sinapp.yaml --email staff@example.org --name "Sam Staff"
//	sinapp graph > wizard.dot
//	sinapp events --type wizard.submitted --limit 20
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "sinapp:", err)
		os.Exit(1)
	}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sinapp",
		Short:         "In-person SIN application wizard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to sinapp.yaml (SINAPP_* env vars override it)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newGraphCommand())
	cmd.AddCommand(newEventsCommand(opts))
	return cmd
}
