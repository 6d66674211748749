package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqzr-sharding/sqzr/app"
	"github.com/sqzr-sharding/sqzr/pkg"
	"github.com/sqzr-sharding/sqzr/pkg/config"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "sqzr run --config `path-to-config` <index>",
	Short: "SQZR",
	Long:  "Sharded Index Squeezer",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <index>",
	Short: "shrink the given index into one with fewer shards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadShrinkCfg(cfgPath); err != nil {
			return err
		}
		if err := sqzrlog.UpdateZeroLogLevel(config.ShrinkConfig().LogLevel); err != nil {
			return err
		}

		a, err := app.NewApp(config.ShrinkConfig())
		if err != nil {
			return fmt.Errorf("error while creating shrink app: %s", err)
		}

		ctx, cancelCtx := context.WithCancel(cmd.Context())
		defer cancelCtx()

		return a.ProcShrink(ctx, args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sqzr",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Sharded Index Squeezer", pkg.SqzrVersionRevision)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/sqzr/config.yaml", "path to config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
