package backend

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Backend resolves blueprints by name.
type Backend interface {
	ContractFactory(ctx context.Context, name string) (Factory, error)
}

// Factory creates new instances of one blueprint. Deploy returns once the
// creation transaction has been submitted.
type Factory interface {
	Deploy(ctx context.Context, args ...interface{}) (Deployment, error)
}

// Deployment is a submitted creation transaction.
type Deployment interface {
	TxHash() common.Hash
	// WaitDeployed blocks until the transaction is mined and returns the
	// address of the new contract.
	WaitDeployed(ctx context.Context) (common.Address, error)
}
