// Package cmd assembles the command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plancheck/plancheck/cmd/check"
	"github.com/plancheck/plancheck/cmd/serve"
	"github.com/plancheck/plancheck/internal/conf"
	"github.com/plancheck/plancheck/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plancheck",
		Short: "PlanCheck CLI",
		Long:  "PlanCheck validates building setback compliance in architectural drawings.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if settings.Debug {
				logging.SetLevel(slog.LevelDebug)
			}
		},
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		check.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Setback.MinDistance, "min-distance", settings.Setback.MinDistance, "Minimum setback clearance in drawing units")
	rootCmd.PersistentFlags().StringVar(&settings.WorkDir, "workdir", settings.WorkDir, "Directory for temporary files")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		cobra.CheckErr(err)
	}
	if err := viper.BindPFlag("setback.mindistance", rootCmd.PersistentFlags().Lookup("min-distance")); err != nil {
		cobra.CheckErr(err)
	}
	if err := viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir")); err != nil {
		cobra.CheckErr(err)
	}
}
