package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Aliases lists the prefix words that trigger one command. In YAML it may be
// written as a single string or as a list.
type Aliases []string

func (a *Aliases) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = Aliases{strings.ToLower(strings.TrimSpace(value.Value))}
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		out := make(Aliases, 0, len(raw))
		for _, s := range raw {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		*a = out
		return nil
	default:
		return errors.Newf("line %d: aliases must be a string or a list", value.Line)
	}
}

func DefaultCommands() map[string]Aliases {
	return map[string]Aliases{
		"hello": {"hello", "hi"},
		"help":  {"help", "h"},
		"play":  {"play", "p"},
	}
}

// Lookup returns the command an alias belongs to.
func (c *Config) Lookup(alias string) (string, bool) {
	alias = strings.ToLower(alias)
	for name, aliases := range c.Commands {
		if len(aliases) == 0 && name == alias {
			return name, true
		}
		for _, a := range aliases {
			if a == alias {
				return name, true
			}
		}
	}
	return "", false
}
