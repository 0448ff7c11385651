// Package app provides the commands of the content sync server.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/content-sync-server/examples"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/logging"
	"github.com/stacklok/content-sync-server/internal/versions"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "content-sync-api",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Content sync server",
		Long: `Content sync server publishes content items to a GitHub repository and to a
syndication platform, tracking every item in a persistent job queue.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if !viper.GetBool("debug") {
				return
			}
			settings, _ := logging.FromEnv(config.EnvPrefix)
			settings.Level = slog.LevelDebug
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), settings))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().Bool("debug", false, "Log at debug level")
	if err := viper.BindPFlag("debug", root.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	root.AddCommand(newServeCmd(), newVersionCmd(), newMigrateCmd(), newCheckCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return fmt.Errorf("failed to get json flag: %w", err)
			}
			return printVersion(cmd.OutOrStdout(), versions.GetVersionInfo(), asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func printVersion(out io.Writer, info versions.VersionInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err := fmt.Fprintf(out, "content-sync-api %s (commit %s, built %s, %s %s)\n",
		info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
	return err
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration and print the resulting setup",
		Long: `Validate a configuration file, or one of the bundled samples, and print the
publishing targets, storage and queue backends it selects. Secrets are not read.`,
		Example: `  content-sync-api check --config config.yaml
  content-sync-api check --example dual-redis`,
		RunE: runCheck,
	}
	cmd.Flags().String("config", "", "Path to configuration file")
	cmd.Flags().String("example", "", "Name of a bundled sample configuration")
	cmd.MarkFlagsMutuallyExclusive("config", "example")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	name, _ := cmd.Flags().GetString("example")

	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.LoadConfig(config.WithConfigPath(path))
	case name != "":
		cfg, err = examples.Load(name)
		if err == nil {
			err = cfg.Validate()
		}
	default:
		names, listErr := examples.Names()
		if listErr != nil {
			return listErr
		}
		return fmt.Errorf("one of --config or --example is required (samples: %v)", names)
	}
	if err != nil {
		return err
	}

	describeConfig(cmd.OutOrStdout(), cfg)
	return nil
}

// describeConfig prints one "key: value" line per selected component
func describeConfig(out io.Writer, cfg *config.Config) {
	queue := cfg.GetQueue()
	lines := [][2]string{
		{"strategy", string(cfg.GetStrategy())},
		{"storage", string(cfg.GetStorageType())},
		{"runner", string(queue.GetRunnerType())},
		{"lock", string(queue.GetLockType())},
		{"workers", fmt.Sprint(queue.GetWorkers())},
	}
	if cfg.UsesGit() && cfg.GitHub != nil {
		lines = append(lines, [2]string{"github", cfg.GitHub.Repository + "@" + cfg.GitHub.GetBranch()})
	}
	if cfg.UsesSyndication() && cfg.Syndication != nil {
		lines = append(lines, [2]string{"syndication", cfg.Syndication.GetEndpoint()})
	}
	if d := queue.GetAutoRetryInterval(); d > 0 {
		lines = append(lines, [2]string{"auto retry", d.String()})
	}
	for _, l := range lines {
		_, _ = fmt.Fprintf(out, "%-12s %s\n", l[0]+":", l[1])
	}
}
