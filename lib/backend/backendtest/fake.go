// Package backendtest provides an in-memory backend.Backend for tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0glabs/evmdeploy/lib/backend"
)

// Fake resolves any name in Blueprints and records every Deploy call. The
// error fields make the matching step fail.
type Fake struct {
	Blueprints map[string]common.Address
	TxHash     common.Hash

	LookupErr  error
	DeployErr  error
	ConfirmErr error

	mu    sync.Mutex
	calls []Call
}

type Call struct {
	Blueprint string
	Args      []interface{}
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) ContractFactory(ctx context.Context, name string) (backend.Factory, error) {
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	addr, ok := f.Blueprints[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &factory{fake: f, name: name, address: addr}, nil
}

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "NotFound: no blueprint named " + e.Name
}

type factory struct {
	fake    *Fake
	name    string
	address common.Address
}

func (fa *factory) Deploy(ctx context.Context, args ...interface{}) (backend.Deployment, error) {
	fa.fake.mu.Lock()
	fa.fake.calls = append(fa.fake.calls, Call{Blueprint: fa.name, Args: args})
	fa.fake.mu.Unlock()

	if fa.fake.DeployErr != nil {
		return nil, fa.fake.DeployErr
	}
	return &deployment{fake: fa.fake, address: fa.address}, nil
}

type deployment struct {
	fake    *Fake
	address common.Address
}

func (d *deployment) TxHash() common.Hash {
	return d.fake.TxHash
}

func (d *deployment) WaitDeployed(ctx context.Context) (common.Address, error) {
	if d.fake.ConfirmErr != nil {
		return common.Address{}, d.fake.ConfirmErr
	}
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	return d.address, nil
}
