package cli

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// window is a --page value.
type window struct {
	start, size int
	set         bool
}

func parseWindow(s string) (window, error) {
	if s == "" {
		return window{}, nil
	}
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return window{}, fmt.Errorf("page %q: expected start,size", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || start < 0 {
		return window{}, fmt.Errorf("page %q: invalid start", s)
	}
	size, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || size <= 0 {
		return window{}, fmt.Errorf("page %q: invalid size", s)
	}
	return window{start: start, size: size, set: true}, nil
}

// parseArgs decodes a YAML (or JSON) sequence of positional arguments.
func parseArgs(s string) ([]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var args []any
	if err := yaml.Unmarshal([]byte(s), &args); err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	return args, nil
}

// parseBindings decodes a YAML (or JSON) mapping of template bindings.
func parseBindings(s string) (map[string]any, error) {
	bindings := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return bindings, nil
	}
	if err := yaml.Unmarshal([]byte(s), &bindings); err != nil {
		return nil, fmt.Errorf("bindings: %w", err)
	}
	return bindings, nil
}
