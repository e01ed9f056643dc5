package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphlint/internal/ir"
)

// LoadError reports an unusable mapping file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for mapping files.
const (
	ErrCodeNotFound    = "E001" // File missing or unreadable
	ErrCodeFormat      = "E002" // Unsupported file extension
	ErrCodeSyntax      = "E003" // YAML/JSON/CUE syntax error
	ErrCodeBuildFailed = "E004" // CUE evaluation failed
	ErrCodeShape       = "E005" // Document does not have the mapping shape
)

// LoadMapping reads a mapping override file. YAML and JSON files (.yaml,
// .yml, .json) and CUE files (.cue) are accepted, each with the top-level
// keys classes, relationships and properties mapping IRIs to names.
func LoadMapping(path string) (*ir.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mapping file: %v", err)}
	}

	m := ir.NewMapping()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, &LoadError{Code: ErrCodeSyntax, Message: fmt.Sprintf("%s: %v", path, err)}
		}
	case ".cue":
		if err := decodeCUE(path, data, m); err != nil {
			return nil, err
		}
	default:
		return nil, &LoadError{
			Code:    ErrCodeFormat,
			Message: fmt.Sprintf("%s: unsupported mapping format (want .yaml, .yml, .json or .cue)", path),
		}
	}
	return m.Merge(nil), nil
}

func decodeCUE(path string, data []byte, m *ir.Mapping) error {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cueError(ErrCodeSyntax, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return cueError(ErrCodeBuildFailed, err)
	}
	if err := value.Decode(m); err != nil {
		return cueError(ErrCodeShape, err)
	}
	return nil
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}
