package roles

import "strings"

// Aliases maps raw position labels (case-insensitive) to canonical labels.
type Aliases map[string]string

// DefaultAliases covers the long-form labels common scraping sources emit.
func DefaultAliases() Aliases {
	return Aliases{
		"goalkeeper":         "GK",
		"keeper":             "GK",
		"centre-back":        "CB",
		"center-back":        "CB",
		"centre back":        "CB",
		"center back":        "CB",
		"left-back":          "FB",
		"right-back":         "FB",
		"left back":          "FB",
		"right back":         "FB",
		"lb":                 "FB",
		"rb":                 "FB",
		"lwb":                "FB",
		"rwb":                "FB",
		"wing-back":          "FB",
		"defensive midfield": "DM",
		"cdm":                "DM",
		"central midfield":   "CM",
		"attacking midfield": "AM",
		"cam":                "AM",
		"left winger":        "W",
		"right winger":       "W",
		"left wing":          "W",
		"right wing":         "W",
		"lw":                 "W",
		"rw":                 "W",
		"left midfield":      "W",
		"right midfield":     "W",
		"lm":                 "W",
		"rm":                 "W",
		"centre-forward":     "ST",
		"center-forward":     "ST",
		"cf":                 "ST",
		"second striker":     "ST",
		"striker":            "ST",
	}
}

// Canonical maps a raw label to its canonical form. Unknown labels are
// upper-cased and returned as-is.
func (a Aliases) Canonical(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return ""
	}
	if c, ok := a[key]; ok {
		return c
	}
	return strings.ToUpper(key)
}

// Merge returns a copy of a with the entries of b added on top.
func (a Aliases) Merge(b map[string]string) Aliases {
	out := make(Aliases, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
