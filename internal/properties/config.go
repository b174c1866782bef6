// Package properties holds the visual property configuration of a flow map:
// a flat string map keyed by dot-namespaced names, the rules for merging
// stored values, presets and user edits, and the fixed preset catalog.
//
// Values are always strings ("yes"/"no", "45") so the map can be stored and
// diffed as-is. Code that needs typed values goes through [Decode], [Int]
// and [Bool] instead of re-parsing ad hoc.
package properties

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Recognized configuration keys.
const (
	KeyColorScheme    = "colors.scheme"
	KeyDarkMode       = "colors.darkMode"
	KeyAnimateFlows   = "animate.flows"
	KeyClustering     = "clustering"
	KeyFadeAmount     = "fadeAmount"
	KeyBaseMapOpacity = "baseMapOpacity"
)

// Toggle values.
const (
	Yes = "yes"
	No  = "no"
)

// Slider fallbacks used when the key is absent or unreadable.
const (
	DefaultFadeAmount     = 45
	DefaultBaseMapOpacity = 75
	DefaultColorScheme    = "Default"

	sliderMin = 0
	sliderMax = 100
)

// Config is a flat property configuration.
type Config map[string]string

// Clone returns an independent copy. A nil Config clones to nil.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the configuration keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the built-in values injected before anything else.
func Defaults() Config {
	return Config{KeyDarkMode: No}
}

// Merge layers configurations from lowest to highest precedence: built-in
// defaults, base (previously stored), template (bulk overwrite of every key
// it defines), overrides (explicit per-key edits). Inputs are not modified.
func Merge(base, template, overrides Config) Config {
	out := Defaults()
	for _, layer := range []Config{base, template, overrides} {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Load re-merges a stored configuration with the built-in defaults.
func Load(stored Config) Config {
	return Merge(stored, nil, nil)
}

// ApplyTemplate overwrites cfg with every key of the named template. An
// unknown name leaves the configuration unchanged and reports false.
func ApplyTemplate(cfg Config, name string) (Config, bool) {
	t, ok := Lookup(name)
	if !ok {
		return Merge(cfg, nil, nil), false
	}
	return Merge(cfg, t.Config, nil), true
}

// Set returns a copy of cfg with key set to value.
func Set(cfg Config, key, value string) Config {
	return Merge(cfg, nil, Config{key: value})
}

// SetBool stores a toggle as "yes" or "no".
func SetBool(cfg Config, key string, on bool) Config {
	if on {
		return Set(cfg, key, Yes)
	}
	return Set(cfg, key, No)
}

// SetInt stores a slider value as its decimal representation.
func SetInt(cfg Config, key string, v int) Config {
	return Set(cfg, key, strconv.Itoa(v))
}

// Bool reports whether key holds "yes".
func Bool(cfg Config, key string) bool {
	return strings.EqualFold(strings.TrimSpace(cfg[key]), Yes)
}

// Int reads key as an integer in [0, 100]. The leading integer part is used
// ("45.5" reads as 45); absent or unreadable values yield fallback.
func Int(cfg Config, key string, fallback int) int {
	raw, ok := cfg[key]
	if !ok {
		return fallback
	}
	n, ok := leadingInt(raw)
	if !ok {
		return fallback
	}
	if n < sliderMin {
		return sliderMin
	}
	if n > sliderMax {
		return sliderMax
	}
	return n
}

// leadingInt parses an optional sign followed by decimal digits, ignoring
// anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Settings is the typed view of a configuration.
type Settings struct {
	Scheme         string `json:"scheme"`
	DarkMode       bool   `json:"darkMode"`
	AnimateFlows   bool   `json:"animateFlows"`
	Clustering     bool   `json:"clustering"`
	FadeAmount     int    `json:"fadeAmount"`
	BaseMapOpacity int    `json:"baseMapOpacity"`
}

// Decode reads the recognized keys into Settings.
func Decode(cfg Config) Settings {
	scheme := cfg[KeyColorScheme]
	if scheme == "" {
		scheme = DefaultColorScheme
	}
	return Settings{
		Scheme:         scheme,
		DarkMode:       Bool(cfg, KeyDarkMode),
		AnimateFlows:   Bool(cfg, KeyAnimateFlows),
		Clustering:     Bool(cfg, KeyClustering),
		FadeAmount:     Int(cfg, KeyFadeAmount, DefaultFadeAmount),
		BaseMapOpacity: Int(cfg, KeyBaseMapOpacity, DefaultBaseMapOpacity),
	}
}

// Encode writes s back into the string form.
func (s Settings) Encode() Config {
	cfg := Config{
		KeyColorScheme:    s.Scheme,
		KeyFadeAmount:     strconv.Itoa(s.FadeAmount),
		KeyBaseMapOpacity: strconv.Itoa(s.BaseMapOpacity),
	}
	cfg = SetBool(cfg, KeyDarkMode, s.DarkMode)
	cfg = SetBool(cfg, KeyAnimateFlows, s.AnimateFlows)
	return SetBool(cfg, KeyClustering, s.Clustering)
}

// Problem is an advisory finding about a configuration value.
type Problem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Key, p.Message)
}

// Validate reports recognized keys whose values are outside their domain.
// Unknown keys are kept and not reported.
func Validate(cfg Config) []Problem {
	var problems []Problem

	if v, ok := cfg[KeyColorScheme]; ok && !IsColorScheme(v) {
		problems = append(problems, Problem{Key: KeyColorScheme, Value: v, Message: "unknown color scheme"})
	}

	for _, key := range []string{KeyDarkMode, KeyAnimateFlows, KeyClustering} {
		if v, ok := cfg[key]; ok && v != Yes && v != No {
			problems = append(problems, Problem{Key: key, Value: v, Message: `must be "yes" or "no"`})
		}
	}

	for _, key := range []string{KeyFadeAmount, KeyBaseMapOpacity} {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, Problem{Key: key, Value: v, Message: "must be a whole number"})
			continue
		}
		if n < sliderMin || n > sliderMax {
			problems = append(problems, Problem{Key: key, Value: v, Message: "must be between 0 and 100"})
		}
	}

	return problems
}
