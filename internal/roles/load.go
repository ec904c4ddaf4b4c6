package roles

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile reads role definitions from a YAML file of the form
//
//	roles:
//	  CB:
//	    positions: [CB]
//	    baseline: {pass_pct: "pct(passes_completed, passes_attempted)"}
//	    ...
//
// and merges them over base. Every resulting role is compiled so formula
// errors surface at load time.
func LoadFile(path string, base Catalog) (Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load roles file %s: %w", path, err)
	}
	var doc struct {
		Roles map[string]RoleConfig `koanf:"roles"`
	}
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode roles file %s: %w", path, err)
	}
	merged := base.Merge(doc.Roles)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
