package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/viper"

	"github.com/0glabs/evmdeploy/lib/backend"
	"github.com/0glabs/evmdeploy/lib/config"
	"github.com/0glabs/evmdeploy/lib/deployer"
	"github.com/0glabs/evmdeploy/lib/logging"
)

// Run loads the configuration held by v, deploys through a JSON-RPC node and
// returns the process exit code.
func Run(ctx context.Context, v *viper.Viper, stdout, stderr io.Writer) int {
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	eth, err := backend.Dial(ctx, cfg.Backend, logger)
	if err != nil {
		logger.Error("Failed to prepare deployment backend", "rpc", cfg.Backend.RpcUrl, "err", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer eth.Close()

	logger.Info("Deploying", "blueprint", cfg.Deployment.Blueprint, "from", eth.From(), "chainId", eth.ChainId())
	return Execute(ctx, eth, cfg.Deployment, stdout, stderr, logger)
}

// Execute deploys through b and maps the outcome to an exit code: 0 when the
// address was printed, 1 otherwise.
func Execute(ctx context.Context, b backend.Backend, cfg config.Deployment, stdout, stderr io.Writer, logger log.Logger) int {
	_, err := deployer.New(b, cfg, stdout, logger).Run(ctx)
	return ExitCode(err, stderr, logger)
}

func ExitCode(err error, stderr io.Writer, logger log.Logger) int {
	if err == nil {
		return 0
	}

	var failure *deployer.DeploymentFailure
	if errors.As(err, &failure) {
		logger.Error("Deployment failed", "stage", failure.Stage, "blueprint", failure.Blueprint, "err", failure.Err)
	} else {
		logger.Error("Deployment failed", "err", err)
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}
