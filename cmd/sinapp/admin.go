package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/observability"
	"github.com/hazyhaar/sinapp/wizard"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dbs, err := openDatabases(cfg)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "db", cfg.Database.Path, "events_db", cfg.EventsDBPath())
			return dbs.Close()
		},
	}
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	var email, name string
	var roles []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account, reading the password from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			dbs, err := openDatabases(cfg)
			if err != nil {
				return err
			}
			defer dbs.Close()

			u, err := auth.NewUsers(dbs.db).Create(cmd.Context(), email, name, password, roles...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) roles=%s\n", u.Email, u.ID, strings.Join(u.Roles, ","))
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "login email")
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringSliceVar(&roles, "role", []string{auth.RoleStaff}, "roles to grant")
	add.MarkFlagRequired("email")

	disable := &cobra.Command{
		Use:   "disable <user-id>",
		Short: "Block further logins for a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dbs, err := openDatabases(cfg)
			if err != nil {
				return err
			}
			defer dbs.Close()
			return auth.NewUsers(dbs.db).Disable(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(add, disable)
	return cmd
}

// readPassword takes the first line of stdin so passwords stay out of the
// shell history.
func readPassword(cmd *cobra.Command) (string, error) {
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password expected on stdin")
	}
	pw := strings.TrimRight(sc.Text(), "\r")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the wizard state machine as Graphviz DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), wizard.Definition.ToDOT())
			return err
		},
	}
}

func newEventsCommand(opts *rootOptions) *cobra.Command {
	var f observability.Filter
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded business events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dbs, err := openDatabases(cfg)
			if err != nil {
				return err
			}
			defer dbs.Close()

			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			events := observability.NewEventLogger(dbs.events, logger)
			defer events.Close()
			list, err := events.Query(cmd.Context(), f)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range list {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "", "event type, e.g. wizard.submitted")
	cmd.Flags().StringVar(&f.EntityID, "entity", "", "entity id (tab id or login email)")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "maximum number of events")
	return cmd
}
