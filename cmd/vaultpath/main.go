package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/vaultpath/cmd/vaultpath/commands"
	"github.com/systmms/vaultpath/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rt := &commands.Runtime{}

	rootCmd := &cobra.Command{
		Use:   "vaultpath",
		Short: "Resolve secrets from your vault by notation path",
		Long: `vaultpath resolves notation strings like
'My Record/field/password' against your vault and prints the value,
for scripting and CI use.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.Logger = logging.New(rt.Debug, rt.NoColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.ConfigPath, "config", "", "Profile file path (default vaultpath.yaml)")
	rootCmd.PersistentFlags().StringVar(&rt.ProfileName, "profile", "", "Profile name")
	rootCmd.PersistentFlags().BoolVar(&rt.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rt.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&rt.Metrics, "metrics", false, "Register Prometheus metrics")

	rootCmd.AddCommand(
		commands.NewInitCommand(rt),
		commands.NewGetCommand(rt),
		commands.NewListCommand(rt),
	)

	return rootCmd.Execute()
}
