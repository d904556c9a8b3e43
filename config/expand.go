package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingEnv is returned when a ${VAR} reference names an unset variable.
var ErrMissingEnv = errors.New("config: missing required environment variables")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const dollarSentinel = "\x00WEBSEARCH_DOLLAR\x00"

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - $VAR and ${VAR} are expanded via os.ExpandEnv.
//   - ${VAR} with VAR unset is an error; bare $VAR expands to "".
//   - $$ emits a literal $.
func ExpandEnvStrict(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok && !slices.Contains(missing, match[1]) {
			missing = append(missing, match[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}

// expandNode rewrites every string scalar value under n. Mapping keys are
// left alone. A plain scalar whose value changed drops its resolved tag so
// "${PORT}" can still decode into an int.
func expandNode(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := expandNode(c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if err := expandNode(n.Content[i]); err != nil {
				return fmt.Errorf("%s: %w", n.Content[i-1].Value, err)
			}
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return nil
		}
		v, err := ExpandEnvStrict(n.Value)
		if err != nil {
			return err
		}
		if v != n.Value {
			n.Value = v
			if n.Style == 0 && v != "" {
				n.Tag = ""
			}
		}
	}
	return nil
}
