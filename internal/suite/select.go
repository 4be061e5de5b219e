package suite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoCases is returned when a selection resolves to an empty set.
var ErrNoCases = errors.New("no test cases selected")

// Selection captures the command-line inputs that choose which cases run.
type Selection struct {
	// Cases are positional identifiers. Without Match they are run as given;
	// with Match they are prefixes.
	Cases []string

	Good  bool // -g: base list is the good list only
	Next  bool // -b: base list is the next list only
	Match bool // -m: keep base list entries starting with any of Cases
}

// Select resolves the ordered cases a run should execute.
//
// Explicit identifiers override list selection. Otherwise the base list is
// good (-g), next (-b) or the configured default concatenation, and with
// Match it is filtered by prefix. List order is preserved.
func Select(cfg *Config, sel Selection) ([]string, error) {
	if len(sel.Cases) > 0 && !sel.Match {
		cases := make([]string, 0, len(sel.Cases))
		for _, id := range sel.Cases {
			if normalized := Normalize(id); normalized != "" {
				cases = append(cases, normalized)
			}
		}
		if len(cases) == 0 {
			return nil, ErrNoCases
		}
		return cases, nil
	}

	base, err := baseList(cfg, sel)
	if err != nil {
		return nil, err
	}

	if !sel.Match {
		if len(base) == 0 {
			return nil, ErrNoCases
		}
		return base, nil
	}

	var prefixes []string
	for _, arg := range sel.Cases {
		if prefix := Normalize(arg); prefix != "" {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("match mode requires a prefix argument")
	}

	var matched []string
	for _, id := range base {
		if hasAnyPrefix(id, prefixes) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: nothing matches prefixes %q", ErrNoCases, prefixes)
	}
	return matched, nil
}

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

func baseList(cfg *Config, sel Selection) ([]string, error) {
	var names []string
	switch {
	case sel.Good && sel.Next:
		names = []string{ListNext, ListGood}
	case sel.Good:
		names = []string{ListGood}
	case sel.Next:
		names = []string{ListNext}
	default:
		names = cfg.Default
	}

	var cases []string
	for _, name := range names {
		list, ok := cfg.Lists[name]
		if !ok {
			return nil, fmt.Errorf("list %q is not declared", name)
		}
		cases = append(cases, list...)
	}
	return cases, nil
}

// ExpandListArgs replaces a single "@file" argument with the identifiers it
// contains. "@-" reads from stdin. Other arguments are returned unchanged.
func ExpandListArgs(args []string, stdin io.Reader) ([]string, error) {
	if len(args) != 1 || !strings.HasPrefix(args[0], "@") {
		return args, nil
	}

	name := strings.TrimPrefix(args[0], "@")
	if name == "-" {
		return ReadList(stdin)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q as a list file: %w", name, err)
	}
	defer f.Close()
	return ReadList(f)
}

// ReadList reads whitespace-separated case identifiers.
func ReadList(r io.Reader) ([]string, error) {
	var cases []string
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		cases = append(cases, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading list: %w", err)
	}
	return cases, nil
}
