package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

var testRecipient = common.HexToAddress("0x698d286d660b298511e49da24799d16c74b5640d")

func newViper(t *testing.T, values map[string]interface{}) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad(t *testing.T) {
	v := newViper(t, map[string]interface{}{
		PrivateKey:     "0xabc",
		Recipient:      testRecipient.Hex(),
		MetadataUri:    " ipfs://meta/ ",
		ConfirmTimeout: "30s",
	})

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, DefaultRpcUrl, cfg.Backend.RpcUrl)
	require.Equal(t, DefaultArtifactsDir, cfg.Backend.ArtifactsDir)
	require.Equal(t, uint64(DefaultGasPriceBump), cfg.Backend.GasPriceBump)
	require.Equal(t, 30*time.Second, cfg.Backend.ConfirmTimeout)
	require.Equal(t, DefaultBlueprint, cfg.Deployment.Blueprint)
	require.Equal(t, testRecipient, cfg.Deployment.Recipient)
	require.Equal(t, "ipfs://meta/", cfg.Deployment.MetadataUri)
}

func TestLoadMissing(t *testing.T) {
	base := map[string]interface{}{
		PrivateKey:  "0xabc",
		Recipient:   testRecipient.Hex(),
		MetadataUri: "abc",
	}
	for _, key := range []string{PrivateKey, Recipient, MetadataUri} {
		t.Run(key, func(t *testing.T) {
			values := make(map[string]interface{})
			for k, val := range base {
				if k != key {
					values[k] = val
				}
			}
			_, err := Load(newViper(t, values))
			require.ErrorIs(t, err, ErrMissing)
			require.Contains(t, err.Error(), key)
		})
	}
}

func TestParseAddress(t *testing.T) {
	checksummed := testRecipient.Hex()

	addr, err := ParseAddress(checksummed)
	require.NoError(t, err)
	require.Equal(t, testRecipient, addr)

	addr, err = ParseAddress(strings.ToLower(checksummed))
	require.NoError(t, err)
	require.Equal(t, testRecipient, addr)

	addr, err = ParseAddress("0x" + strings.ToUpper(checksummed[2:]))
	require.NoError(t, err)
	require.Equal(t, testRecipient, addr)

	// flip the case of one letter to break the checksum
	broken := []byte(checksummed)
	for i := 2; i < len(broken); i++ {
		c := broken[i]
		if c >= 'a' && c <= 'f' {
			broken[i] = c - 'a' + 'A'
			break
		}
		if c >= 'A' && c <= 'F' {
			broken[i] = c - 'A' + 'a'
			break
		}
	}
	_, err = ParseAddress(string(broken))
	require.ErrorIs(t, err, ErrBadChecksum)

	_, err = ParseAddress("0x698d286d660B298511E49dA24799d16C74b564")
	require.ErrorIs(t, err, ErrBadAddress)
}

func TestInitReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "deploy.yaml")
	content := "recipient: \"" + testRecipient.Hex() + "\"\n" +
		"metadata-uri: \"abc\"\n" +
		"blueprint: \"Other\"\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	t.Setenv("EVMDEPLOY_PRIVATE_KEY", "0x01")
	t.Setenv("EVMDEPLOY_GAS_LIMIT", "3000000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--rpc-url", "http://node:8545"}))

	v := viper.New()
	require.NoError(t, Init(v, fs, file))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "http://node:8545", cfg.Backend.RpcUrl)
	require.Equal(t, "0x01", cfg.Backend.PrivateKey)
	require.Equal(t, uint64(3_000_000), cfg.Backend.GasLimit)
	require.Equal(t, "Other", cfg.Deployment.Blueprint)
	require.Equal(t, "abc", cfg.Deployment.MetadataUri)
}

func TestInitMissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := Init(v, nil, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
