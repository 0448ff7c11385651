package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/stacklok/content-sync-server/database"
	"github.com/stacklok/content-sync-server/internal/config"
)

// errMigrationDeclined is returned when the operator answers no at the prompt
var errMigrationDeclined = errors.New("migration cancelled by user")

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the job queue schema",
		Long: `Manage the PostgreSQL schema holding the job queue and the item status table.
Only needed when storage.type is "database".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("yes", "y", false, "Do not ask for confirmation")
	flags.UintP("num-steps", "n", 0, "Number of migrations to apply or revert (0 = all)")
	flags.String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		newMigrationRunCmd(migrationUp, "Apply pending migrations"),
		newMigrationRunCmd(migrationDown, "Revert migrations, dropping queued jobs"),
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE:  runMigrationStatus,
		},
	)
	return cmd
}

type migrationDirection string

const (
	migrationUp   migrationDirection = "up"
	migrationDown migrationDirection = "down"
)

// migrationPlan is one run of the up or down subcommand
type migrationPlan struct {
	direction migrationDirection
	steps     uint
}

func (p migrationPlan) prompt(db *config.DatabaseConfig) string {
	target := fmt.Sprintf("%s@%s:%d/%s", db.User, db.Host, db.Port, db.Database)
	switch {
	case p.direction == migrationUp:
		return fmt.Sprintf("Apply migrations to %s?", target)
	case p.steps == 0:
		return fmt.Sprintf("Revert ALL migrations on %s? Every queued job and item status will be lost.", target)
	default:
		return fmt.Sprintf("Revert %d migration(s) on %s? Data in the reverted tables will be lost.", p.steps, target)
	}
}

// apply runs the plan. A schema already at the requested end is not an error.
func (p migrationPlan) apply(m database.Migrator) error {
	var err error
	switch {
	case p.steps > math.MaxInt32:
		return fmt.Errorf("num-steps %d is too large", p.steps)
	case p.steps == 0 && p.direction == migrationUp:
		err = m.Up()
	case p.steps == 0:
		err = m.Down()
	case p.direction == migrationUp:
		err = m.Steps(int(p.steps)) // #nosec G115 -- bounded above
	default:
		err = m.Steps(-int(p.steps)) // #nosec G115 -- bounded above
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Schema already up to date", "direction", p.direction)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", p.direction, err)
	}
	return nil
}

func newMigrationRunCmd(direction migrationDirection, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetUint("num-steps")
			if err != nil {
				return fmt.Errorf("failed to get num-steps flag: %w", err)
			}
			plan := migrationPlan{direction: direction, steps: steps}

			dbCfg, connString, err := migrationTarget(cmd)
			if err != nil {
				return err
			}
			if err := confirmPlan(cmd, plan, dbCfg); err != nil {
				return err
			}

			return withMigrator(connString, func(m database.Migrator) error {
				if err := plan.apply(m); err != nil {
					return err
				}
				reportVersion(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}
}

func runMigrationStatus(cmd *cobra.Command, _ []string) error {
	_, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}
	return withMigrator(connString, func(m database.Migrator) error {
		reportVersion(cmd.OutOrStdout(), m)
		return nil
	})
}

func confirmPlan(cmd *cobra.Command, plan migrationPlan, db *config.DatabaseConfig) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes || confirmFrom(cmd.InOrStdin(), cmd.OutOrStdout(), plan.prompt(db)) {
		return nil
	}
	return errMigrationDeclined
}

// migrationTarget loads the file named by --config and returns its database
// section together with the connection string
func migrationTarget(cmd *cobra.Command) (*config.DatabaseConfig, string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database == nil {
		return nil, "", fmt.Errorf("%s has no database section", configPath)
	}
	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build connection string: %w", err)
	}
	return cfg.Database, connString, nil
}

func withMigrator(connString string, fn func(database.Migrator) error) error {
	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()
	return fn(m)
}

func reportVersion(out io.Writer, m database.Migrator) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		_, _ = fmt.Fprintln(out, "schema version: none")
	case err != nil:
		slog.Warn("Failed to read schema version", "error", err)
	case dirty:
		_, _ = fmt.Fprintf(out, "schema version: %d (dirty, fix manually before migrating again)\n", version)
	default:
		_, _ = fmt.Fprintf(out, "schema version: %d\n", version)
	}
}

func confirmFrom(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y"
}
