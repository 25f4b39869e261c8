package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNotFound   = errors.New("blueprint not found")
	ErrAmbiguous  = errors.New("blueprint name is ambiguous")
	ErrNoBytecode = errors.New("blueprint has no creation bytecode")
)

// Blueprint is a compiled contract ready to be deployed.
type Blueprint struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte
}

// Store looks blueprints up by contract name in a Hardhat or Foundry output
// directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Lookup(name string) (*Blueprint, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	matches, err := s.find(name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, s.dir)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguous, name, strings.Join(matches, ", "))
	}

	return ReadBlueprint(name, matches[0])
}

func (s *Store) find(name string) ([]string, error) {
	want := name + ".json"
	var matches []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			matches = append(matches, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	return matches, nil
}

// contract covers both the Hardhat ("bytecode": "0x..") and Foundry
// ("bytecode": {"object": "0x.."}) artifact formats.
type contract struct {
	ContractName string          `json:"contractName"`
	Abi          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

type foundryBytecode struct {
	Object string `json:"object"`
}

// ReadBlueprint parses a single artifact file.
func ReadBlueprint(name, path string) (*Blueprint, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var c contract
	if err := json.Unmarshal(fileData, &c); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if c.ContractName != "" && c.ContractName != name {
		return nil, fmt.Errorf("%w: %s holds contract %s", ErrNotFound, path, c.ContractName)
	}
	if len(c.Abi) == 0 {
		return nil, fmt.Errorf("artifact %s: missing abi", path)
	}

	parsed, err := abi.JSON(bytes.NewReader(c.Abi))
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", path, err)
	}

	code, err := decodeBytecode(c.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, name)
	}

	return &Blueprint{
		Name:     name,
		Path:     path,
		ABI:      parsed,
		Bytecode: code,
	}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hex string
	if raw[0] == '{' {
		var fb foundryBytecode
		if err := json.Unmarshal(raw, &fb); err != nil {
			return nil, fmt.Errorf("decode bytecode: %w", err)
		}
		hex = fb.Object
	} else if err := json.Unmarshal(raw, &hex); err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}

	if hex == "" || hex == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	// unlinked library placeholders look like __$...$__
	if strings.Contains(hex, "__") {
		return nil, errors.New("bytecode has unlinked libraries")
	}
	return hexutil.Decode(hex)
}
