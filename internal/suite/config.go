package suite

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Well-known list names.
const (
	ListGood    = "good"    // regression set, expected to pass
	ListNext    = "next"    // next to fix
	ListBroken  = "broken"  // permanently broken
	ListIgnored = "ignored" // intentionally not run
)

//go:embed lists.yaml
var defaultListsYAML []byte

// Config is the declarative mapping from list name to ordered case identifiers.
type Config struct {
	// Default names the lists concatenated, in order, when a run selects
	// nothing explicitly.
	Default []string `yaml:"default" json:"default"`

	// Lists maps a list name to its ordered case identifiers.
	Lists map[string][]string `yaml:"lists" json:"lists"`
}

// List returns the named list, or nil if it is not declared.
func (c *Config) List(name string) []string {
	return c.Lists[name]
}

// Load error codes.
const (
	ErrCodeReadFailed  = "E201" // list file unreadable
	ErrCodeParseFailed = "E202" // YAML/CUE syntax or decode error
	ErrCodeInvalid     = "E203" // structurally valid but semantically wrong
	ErrCodeUnsupported = "E204" // unknown file extension
)

// LoadError describes a failure loading a list configuration.
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

// Default returns the built-in list configuration.
func Default() (*Config, error) {
	return parseYAML(defaultListsYAML)
}

// Load reads a list configuration from path. Files ending in .cue are
// evaluated with CUE; .yaml and .yml are decoded strictly as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading list file: %v", err)}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported list file %q (want .yaml, .yml or .cue)", path)}
	}
}

func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	return finish(&cfg)
}

func parseCUE(path string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, cueLoadError(err)
	}
	return finish(&cfg)
}

func cueLoadError(err error) *LoadError {
	loadErr := &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// finish normalizes identifiers and validates the configuration.
func finish(cfg *Config) (*Config, error) {
	if len(cfg.Lists) == 0 {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: "lists is required and must be non-empty"}
	}

	for name, cases := range cfg.Lists {
		for i, id := range cases {
			normalized := Normalize(id)
			if normalized == "" {
				return nil, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("lists.%s[%d]: empty case identifier", name, i)}
			}
			cases[i] = normalized
		}
	}

	if len(cfg.Default) == 0 {
		for _, name := range []string{ListNext, ListGood} {
			if _, ok := cfg.Lists[name]; ok {
				cfg.Default = append(cfg.Default, name)
			}
		}
		if len(cfg.Default) == 0 {
			return nil, &LoadError{Code: ErrCodeInvalid, Message: "default is required when neither a next nor a good list is declared"}
		}
	}
	for _, name := range cfg.Default {
		if _, ok := cfg.Lists[name]; !ok {
			return nil, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("default references unknown list %q", name)}
		}
	}

	return cfg, nil
}

// Normalize canonicalizes a case identifier: NFC, forward slashes, no
// surrounding whitespace and no binary extension.
func Normalize(id string) string {
	id = strings.TrimSpace(norm.NFC.String(id))
	id = strings.ReplaceAll(id, `\`, "/")
	for _, ext := range []string{".prx", ".elf", ".expected"} {
		id = strings.TrimSuffix(id, ext)
	}
	return id
}

// IsLoadError reports whether err is a *LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr) && loadErr.Code == code
}
