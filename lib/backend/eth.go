package backend

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"

	"github.com/0glabs/evmdeploy/lib/artifact"
	"github.com/0glabs/evmdeploy/lib/config"
)

var ErrChainIdMismatch = errors.New("chain id mismatch")

// Client is the subset of ethclient.Client the backend uses.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Eth deploys blueprints from an artifacts directory through a JSON-RPC node.
type Eth struct {
	client    Client
	artifacts *artifact.Store
	key       *ecdsa.PrivateKey
	from      common.Address
	chainId   *big.Int

	gasLimit       uint64
	gasPriceBump   *big.Int
	confirmTimeout time.Duration

	log   log.Logger
	close func()
}

// Dial connects to cfg.RpcUrl and returns a ready backend.
func Dial(ctx context.Context, cfg config.Backend, logger log.Logger) (*Eth, error) {
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RpcUrl, err)
	}

	e, err := NewEth(ctx, client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	e.close = client.Close
	return e, nil
}

func NewEth(ctx context.Context, client Client, cfg config.Backend, logger log.Logger) (*Eth, error) {
	privKey, err := LoadPrivKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if cfg.ChainId != 0 && chainId.Uint64() != cfg.ChainId {
		return nil, fmt.Errorf("%w: node reports %v, configured %d", ErrChainIdMismatch, chainId, cfg.ChainId)
	}

	e := &Eth{
		client:         client,
		artifacts:      artifact.NewStore(cfg.ArtifactsDir),
		key:            privKey,
		from:           PrivKeyToAddress(privKey),
		chainId:        chainId,
		gasLimit:       cfg.GasLimit,
		gasPriceBump:   new(big.Int).SetUint64(cfg.GasPriceBump),
		confirmTimeout: cfg.ConfirmTimeout,
		log:            logger,
	}
	logger.Debug("Connected to node", "chainId", chainId, "from", e.from)
	return e, nil
}

func (e *Eth) From() common.Address {
	return e.from
}

func (e *Eth) ChainId() *big.Int {
	return new(big.Int).Set(e.chainId)
}

func (e *Eth) Close() {
	if e.close != nil {
		e.close()
	}
}

func (e *Eth) ContractFactory(ctx context.Context, name string) (Factory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bp, err := e.artifacts.Lookup(name)
	if err != nil {
		e.log.Debug("Blueprint lookup failed", "name", name, "dir", e.artifacts.Dir(), "err", err)
		return nil, err
	}
	e.log.Debug("Loaded blueprint", "name", bp.Name, "path", bp.Path, "size", len(bp.Bytecode))
	return &ethFactory{eth: e, blueprint: bp}, nil
}

func (e *Eth) prepareTransactionAuth(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainId)
	if err != nil {
		return nil, err
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get head: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := e.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		auth.GasPrice = gasPrice.Add(gasPrice, e.gasPriceBump)
	} else {
		tip, err := e.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas tip: %w", err)
		}
		tip.Add(tip, e.gasPriceBump)
		feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		auth.GasTipCap = tip
		auth.GasFeeCap = feeCap.Add(feeCap, tip)
	}

	auth.Context = ctx
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.Value = big.NewInt(0) // in wei
	auth.GasLimit = e.gasLimit // 0 estimates

	return auth, nil
}

type ethFactory struct {
	eth       *Eth
	blueprint *artifact.Blueprint
}

func (f *ethFactory) Deploy(ctx context.Context, args ...interface{}) (Deployment, error) {
	auth, err := f.eth.prepareTransactionAuth(ctx)
	if err != nil {
		return nil, err
	}

	address, tx, _, err := bind.DeployContract(auth, f.blueprint.ABI, f.blueprint.Bytecode, f.eth.client, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s creation: %w", f.blueprint.Name, err)
	}

	f.eth.log.Info("Submitted deployment", "blueprint", f.blueprint.Name, "tx", tx.Hash(),
		"nonce", tx.Nonce(), "gas", tx.Gas(), "expected", address)
	return &ethDeployment{eth: f.eth, tx: tx}, nil
}

type ethDeployment struct {
	eth *Eth
	tx  *types.Transaction
}

func (d *ethDeployment) TxHash() common.Hash {
	return d.tx.Hash()
}

func (d *ethDeployment) WaitDeployed(ctx context.Context) (common.Address, error) {
	if d.eth.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.eth.confirmTimeout)
		defer cancel()
	}

	address, err := bind.WaitDeployed(ctx, d.eth.client, d.tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("wait for %s: %w", d.tx.Hash(), err)
	}
	return address, nil
}

// LoadPrivKey parses a hex private key with or without the 0x prefix.
func LoadPrivKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	privKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return privKey, nil
}

func PrivKeyToAddress(privKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privKey.PublicKey)
}
