package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const constructorABI = `[{"inputs":[{"internalType":"address","name":"dao","type":"address"},{"internalType":"string","name":"uri","type":"string"}],"stateMutability":"nonpayable","type":"constructor"}]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLookupHardhat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "contracts", "DanteNFT.sol", "DanteNFT.json"),
		`{"contractName":"DanteNFT","abi":`+constructorABI+`,"bytecode":"0x60016000f3"}`)
	writeFile(t, filepath.Join(dir, "contracts", "DanteNFT.sol", "DanteNFT.dbg.json"), `{}`)
	writeFile(t, filepath.Join(dir, "build-info", "DanteNFT.json"), `{}`)

	s := NewStore(dir)
	require.Equal(t, dir, s.Dir())
	bp, err := s.Lookup("DanteNFT")
	require.NoError(t, err)
	require.Equal(t, "DanteNFT", bp.Name)
	require.Equal(t, []byte{0x60, 0x01, 0x60, 0x00, 0xf3}, bp.Bytecode)
	require.Len(t, bp.ABI.Constructor.Inputs, 2)
	require.Equal(t, "address", bp.ABI.Constructor.Inputs[0].Type.String())
	require.Equal(t, "string", bp.ABI.Constructor.Inputs[1].Type.String())
}

func TestLookupFoundry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "DanteNFT.sol", "DanteNFT.json"),
		`{"abi":`+constructorABI+`,"bytecode":{"object":"0x60016000f3","linkReferences":{}}}`)

	bp, err := NewStore(dir).Lookup("DanteNFT")
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01, 0x60, 0x00, 0xf3}, bp.Bytecode)
}

func TestLookupErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "Twice.json"), `{"abi":[],"bytecode":"0x00"}`)
	writeFile(t, filepath.Join(dir, "b", "Twice.json"), `{"abi":[],"bytecode":"0x00"}`)
	writeFile(t, filepath.Join(dir, "IFace.sol", "IFace.json"), `{"abi":[],"bytecode":"0x"}`)
	writeFile(t, filepath.Join(dir, "Lib.sol", "Lib.json"), `{"abi":[],"bytecode":"0x60__$abc$__00"}`)
	writeFile(t, filepath.Join(dir, "Broken.sol", "Broken.json"), `{"abi":`)

	s := NewStore(dir)

	_, err := s.Lookup("Missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Lookup("Twice")
	require.ErrorIs(t, err, ErrAmbiguous)

	_, err = s.Lookup("IFace")
	require.ErrorIs(t, err, ErrNoBytecode)

	_, err = s.Lookup("Lib")
	require.ErrorContains(t, err, "unlinked")

	_, err = s.Lookup("Broken")
	require.ErrorContains(t, err, "decode artifact")

	_, err = NewStore(filepath.Join(dir, "nope")).Lookup("DanteNFT")
	require.ErrorIs(t, err, ErrNotFound)
}
