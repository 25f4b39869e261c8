package deployer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0glabs/evmdeploy/lib/backend"
	"github.com/0glabs/evmdeploy/lib/config"
)

var errZeroAddress = errors.New("backend returned the zero address")

// Deployer deploys one blueprint with a recipient address and a metadata
// identifier as its constructor arguments.
type Deployer struct {
	backend backend.Backend
	cfg     config.Deployment
	out     io.Writer
	log     log.Logger
}

func New(b backend.Backend, cfg config.Deployment, out io.Writer, logger log.Logger) *Deployer {
	return &Deployer{
		backend: b,
		cfg:     cfg,
		out:     out,
		log:     logger,
	}
}

// ConstructorArgs is the ordered argument list handed to the blueprint's constructor.
func (d *Deployer) ConstructorArgs() []interface{} {
	return []interface{}{d.cfg.Recipient, d.cfg.MetadataUri}
}

// Run performs the deployment and prints the new contract's address. Any
// error is a *DeploymentFailure.
func (d *Deployer) Run(ctx context.Context) (common.Address, error) {
	name := d.cfg.Blueprint
	if err := d.cfg.Validate(); err != nil {
		return common.Address{}, d.fail(StageConfig, err)
	}

	fmt.Fprintf(d.out, "deploying %s...\n", name)

	factory, err := d.backend.ContractFactory(ctx, name)
	if err != nil {
		return common.Address{}, d.fail(StageLookup, err)
	}

	deployment, err := factory.Deploy(ctx, d.ConstructorArgs()...)
	if err != nil {
		return common.Address{}, d.fail(StageSubmit, err)
	}
	d.log.Info("Waiting for deployment", "blueprint", name, "tx", deployment.TxHash())

	address, err := deployment.WaitDeployed(ctx)
	if err != nil {
		return common.Address{}, d.fail(StageConfirm, err)
	}
	if address == (common.Address{}) {
		return common.Address{}, d.fail(StageConfirm, errZeroAddress)
	}

	d.log.Info("Deployed contract", "blueprint", name, "address", address, "tx", deployment.TxHash())
	fmt.Fprintln(d.out, "address:", address.Hex())
	return address, nil
}

func (d *Deployer) fail(stage Stage, err error) error {
	return &DeploymentFailure{Stage: stage, Blueprint: d.cfg.Blueprint, Err: err}
}
