package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	RpcUrl         = "rpc-url"
	ChainId        = "chain-id"
	PrivateKey     = "private-key"
	ArtifactsDir   = "artifacts"
	GasLimit       = "gas-limit"
	GasPriceBump   = "gas-price-bump"
	ConfirmTimeout = "confirm-timeout"

	Blueprint   = "blueprint"
	Recipient   = "recipient"
	MetadataUri = "metadata-uri"

	LogLevel = "log-level"

	EnvPrefix = "EVMDEPLOY"
)

const (
	DefaultRpcUrl       = "http://127.0.0.1:8545"
	DefaultArtifactsDir = "artifacts"
	DefaultBlueprint    = "DanteNFT"
	DefaultGasPriceBump = 2_000_000_000 // 2 gwei, in wei
	DefaultLogLevel     = "info"
)

var (
	ErrMissing     = errors.New("missing required setting")
	ErrBadAddress  = errors.New("invalid address")
	ErrBadChecksum = errors.New("address checksum mismatch")
)

// Backend holds everything the Ethereum deployment backend needs.
type Backend struct {
	RpcUrl         string
	ChainId        uint64 // 0 means use the node's chain id
	PrivateKey     string
	ArtifactsDir   string
	GasLimit       uint64 // 0 means estimate
	GasPriceBump   uint64
	ConfirmTimeout time.Duration // 0 means wait until the context ends
}

// Deployment is the blueprint name and its two constructor arguments.
type Deployment struct {
	Blueprint   string
	Recipient   common.Address
	MetadataUri string
}

type Config struct {
	Backend    Backend
	Deployment Deployment
	LogLevel   string
}

// RegisterFlags adds every setting to fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(RpcUrl, DefaultRpcUrl, "JSON-RPC endpoint of the node")
	fs.Uint64(ChainId, 0, "expected chain id (0 to use the node's)")
	fs.String(PrivateKey, "", "hex private key of the deploying account")
	fs.String(ArtifactsDir, DefaultArtifactsDir, "directory holding compiled contract artifacts")
	fs.Uint64(GasLimit, 0, "gas limit of the creation transaction (0 to estimate)")
	fs.Uint64(GasPriceBump, DefaultGasPriceBump, "wei added to the suggested gas price or tip")
	fs.Duration(ConfirmTimeout, 0, "how long to wait for the deployment to be mined (0 for no limit)")
	fs.String(Blueprint, DefaultBlueprint, "name of the contract to deploy")
	fs.String(Recipient, "", "recipient address passed as the first constructor argument")
	fs.String(MetadataUri, "", "metadata identifier passed as the second constructor argument")
	fs.String(LogLevel, DefaultLogLevel, "log level (trace, debug, info, warn, error, crit)")
}

// SetDefaults makes the defaults visible to a viper instance that has no flags bound.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(RpcUrl, DefaultRpcUrl)
	v.SetDefault(ArtifactsDir, DefaultArtifactsDir)
	v.SetDefault(GasPriceBump, DefaultGasPriceBump)
	v.SetDefault(Blueprint, DefaultBlueprint)
	v.SetDefault(LogLevel, DefaultLogLevel)
}

// Init binds flags and environment variables and reads the config file, if any.
func Init(v *viper.Viper, fs *pflag.FlagSet, file string) error {
	SetDefaults(v)
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("evmdeploy")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load reads all settings out of v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: Backend{
			RpcUrl:         strings.TrimSpace(v.GetString(RpcUrl)),
			ChainId:        v.GetUint64(ChainId),
			PrivateKey:     strings.TrimSpace(v.GetString(PrivateKey)),
			ArtifactsDir:   strings.TrimSpace(v.GetString(ArtifactsDir)),
			GasLimit:       v.GetUint64(GasLimit),
			GasPriceBump:   v.GetUint64(GasPriceBump),
			ConfirmTimeout: v.GetDuration(ConfirmTimeout),
		},
		Deployment: Deployment{
			Blueprint:   strings.TrimSpace(v.GetString(Blueprint)),
			MetadataUri: strings.TrimSpace(v.GetString(MetadataUri)),
		},
		LogLevel: v.GetString(LogLevel),
	}

	recipient := strings.TrimSpace(v.GetString(Recipient))
	if recipient == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissing, Recipient)
	}
	addr, err := ParseAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Recipient, err)
	}
	cfg.Deployment.Recipient = addr

	if err := cfg.Backend.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Deployment.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b Backend) Validate() error {
	if b.RpcUrl == "" {
		return fmt.Errorf("%w: %s", ErrMissing, RpcUrl)
	}
	if b.PrivateKey == "" {
		return fmt.Errorf("%w: %s", ErrMissing, PrivateKey)
	}
	if b.ArtifactsDir == "" {
		return fmt.Errorf("%w: %s", ErrMissing, ArtifactsDir)
	}
	return nil
}

// Validate checks that both constructor arguments are present.
func (d Deployment) Validate() error {
	if d.Blueprint == "" {
		return fmt.Errorf("%w: %s", ErrMissing, Blueprint)
	}
	if d.Recipient == (common.Address{}) {
		return fmt.Errorf("%w: %s", ErrMissing, Recipient)
	}
	if d.MetadataUri == "" {
		return fmt.Errorf("%w: %s", ErrMissing, MetadataUri)
	}
	return nil
}

// ParseAddress accepts a 20 byte hex address. Mixed-case input must carry a
// valid EIP-55 checksum; all lower or all upper case input is taken as is.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrBadAddress, s)
	}
	addr := common.HexToAddress(s)

	digits := s
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) && digits != addr.Hex()[2:] {
		return common.Address{}, fmt.Errorf("%w: %s (expected %s)", ErrBadChecksum, s, addr.Hex())
	}
	return addr, nil
}
