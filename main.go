package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/0glabs/evmdeploy/lib/cmd/deploy"
	"github.com/0glabs/evmdeploy/lib/config"
)

func main() {
	var configFile string

	var rootCmd = &cobra.Command{
		Use:   "evmdeploy",
		Short: "Deploy a contract blueprint with a recipient address and metadata identifier",
		Long: `evmdeploy looks a compiled contract up by name in an artifacts directory,
deploys it with [recipient, metadata-uri] as constructor arguments, waits for
the transaction to be mined and prints the new contract address.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			v := viper.GetViper()
			if err := config.Init(v, cmd.Flags(), configFile); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			code := deploy.Run(ctx, v, os.Stdout, os.Stderr)
			stop()
			os.Exit(code)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (default ./evmdeploy.yaml)")
	config.RegisterFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
