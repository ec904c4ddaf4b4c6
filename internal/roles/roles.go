// Package roles holds the declarative per-role scoring configuration: which
// positions a role accepts, the baseline metric formulas it derives, the
// composite indices and tactical groups it weighs, and which metrics are
// bad when high.
package roles

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pable/go-scout-metrics/internal/formula"
)

// ErrInvalidRole is returned when a role configuration fails validation.
var ErrInvalidRole = errors.New("invalid role config")

// RoleConfig describes how one player role is scored. It is plain data so it
// can be versioned and loaded from YAML.
type RoleConfig struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`

	// Positions lists the canonical position labels this role accepts.
	Positions []string `koanf:"positions"`

	// Baseline maps a derived metric name to its formula source. Formulas
	// may reference raw or context-adjusted columns but never another
	// baseline metric.
	Baseline map[string]string `koanf:"baseline"`

	// Indices maps an index name to its metric weights. Negative weights
	// express "high is bad".
	Indices map[string]map[string]float64 `koanf:"indices"`

	// Groups maps a tactical group label to its member metrics.
	Groups map[string][]string `koanf:"groups"`

	// Weights maps a group label to its base weight.
	Weights map[string]float64 `koanf:"weights"`

	// Invert lists metrics whose high value is undesirable. Informational:
	// consumed by presentation only.
	Invert []string `koanf:"invert"`
}

// Accepts reports whether any of the given canonical positions is eligible.
func (c RoleConfig) Accepts(positions ...string) bool {
	for _, p := range positions {
		for _, q := range c.Positions {
			if strings.EqualFold(p, q) {
				return true
			}
		}
	}
	return false
}

// BaselineNames returns the baseline metric names in sorted order.
func (c RoleConfig) BaselineNames() []string { return sortedKeys(c.Baseline) }

// IndexNames returns the index names in sorted order.
func (c RoleConfig) IndexNames() []string { return sortedKeys(c.Indices) }

// GroupNames returns the group labels in sorted order.
func (c RoleConfig) GroupNames() []string { return sortedKeys(c.Groups) }

// IsInverted reports whether metric is flagged as bad-when-high.
func (c RoleConfig) IsInverted(metric string) bool {
	for _, m := range c.Invert {
		if m == metric {
			return true
		}
	}
	return false
}

// Compiled is a RoleConfig whose baseline formulas have been parsed.
type Compiled struct {
	RoleConfig
	Formulas map[string]formula.Expr
}

// Compile validates the role and parses every baseline formula.
func Compile(c RoleConfig) (*Compiled, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := &Compiled{RoleConfig: c, Formulas: make(map[string]formula.Expr, len(c.Baseline))}
	for _, name := range c.BaselineNames() {
		e, err := formula.Parse(c.Baseline[name])
		if err != nil {
			return nil, fmt.Errorf("role %s: baseline %s: %w", c.Name, name, err)
		}
		out.Formulas[name] = e
	}
	return out, nil
}

// Validate checks structural invariants of the configuration.
func (c RoleConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRole)
	}
	if len(c.Positions) == 0 {
		return fmt.Errorf("%w: %s: no positions", ErrInvalidRole, c.Name)
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("%w: %s: no groups", ErrInvalidRole, c.Name)
	}
	var total float64
	for g := range c.Groups {
		w, ok := c.Weights[g]
		if !ok {
			return fmt.Errorf("%w: %s: group %q has no weight", ErrInvalidRole, c.Name, g)
		}
		if w < 0 {
			return fmt.Errorf("%w: %s: group %q has negative weight", ErrInvalidRole, c.Name, g)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("%w: %s: group weights sum to %g", ErrInvalidRole, c.Name, total)
	}
	for _, g := range sortedKeys(c.Weights) {
		if _, ok := c.Groups[g]; !ok {
			return fmt.Errorf("%w: %s: weight %q names no group", ErrInvalidRole, c.Name, g)
		}
	}
	for name := range c.Baseline {
		if strings.HasPrefix(name, "z_") || strings.HasPrefix(name, "idx_") {
			return fmt.Errorf("%w: %s: baseline %q uses a reserved prefix", ErrInvalidRole, c.Name, name)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
