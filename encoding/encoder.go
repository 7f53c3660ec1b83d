package encoding

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	jsonenc "github.com/effective-security/miniagent/encoding/json"
	tomlenc "github.com/effective-security/miniagent/encoding/toml"
	yamlenc "github.com/effective-security/miniagent/encoding/yaml"
)

// SchemaEncoder encodes and decodes values of a structured type
type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the instructions with the schema for a prompt
	GetFormatInstructions() string
}

// Validator validates decoded values
type Validator interface {
	Validate(any) error
}

type Mode = string

const (
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
	ModeTOML Mode = "toml"
)

// ModeDefault is the default mode for the encoder.
var ModeDefault = ModeJSON

// ErrUnsupportedMode is returned for an unknown encoder mode
var ErrUnsupportedMode = errors.New("no predefined encoder")

// PredefinedSchemaEncoder returns the encoder for the mode and type of req
func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	var (
		enc SchemaEncoder
		err error
	)
	switch mode {
	case ModeJSON:
		enc, err = jsonenc.NewEncoder(req)
	case ModeYAML:
		enc = yamlenc.NewEncoder(req)
	case ModeTOML:
		enc = tomlenc.NewEncoder(req)
	default:
		return nil, errors.Wrapf(ErrUnsupportedMode, "mode %q", mode)
	}
	return enc, err
}

// ModeFromFile returns the encoder mode by the file extension
func ModeFromFile(file string) (Mode, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return ModeJSON, nil
	case ".yaml", ".yml":
		return ModeYAML, nil
	case ".toml":
		return ModeTOML, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedMode, "file %q", filepath.Base(file))
	}
}

var (
	_ SchemaEncoder = (*jsonenc.Encoder)(nil)
	_ SchemaEncoder = (*tomlenc.Encoder)(nil)
	_ SchemaEncoder = (*yamlenc.Encoder)(nil)

	_ Validator = (*jsonenc.Encoder)(nil)
	_ Validator = (*tomlenc.Encoder)(nil)
	_ Validator = (*yamlenc.Encoder)(nil)
)
