package preset

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// AnalysisPreset bundles the engine settings and search limits for one
// named analysis profile. Exactly one of Depth, MoveTimeMillis, MateIn or
// Infinite selects the go variant.
type AnalysisPreset struct {
	Name           string `yaml:"name"`
	Threads        int    `yaml:"threads"`
	HashMB         int    `yaml:"hash_mb"`
	MultiPV        int    `yaml:"multipv"`
	Depth          int    `yaml:"depth"`
	MoveTimeMillis int    `yaml:"movetime_ms"`
	MateIn         int    `yaml:"mate_in"`
	Infinite       bool   `yaml:"infinite"`
}

var (
	mu      sync.RWMutex
	presets = builtinPresets()
)

func builtinPresets() map[string]AnalysisPreset {
	list := []AnalysisPreset{
		{Name: "fast", Threads: 1, HashMB: 64, MultiPV: 1, MoveTimeMillis: 500},
		{Name: "default", Threads: 1, HashMB: 128, MultiPV: 1, Depth: 18},
		{Name: "deep", Threads: 2, HashMB: 256, MultiPV: 1, Depth: 28},
		{Name: "lines", Threads: 2, HashMB: 256, MultiPV: 3, Depth: 22},
	}
	m := make(map[string]AnalysisPreset, len(list))
	for _, p := range list {
		m[p.Name] = p
	}
	return m
}

// Get returns the preset registered under name.
func Get(name string) (AnalysisPreset, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := presets[strings.TrimSpace(name)]
	if !ok {
		return AnalysisPreset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// Names returns the registered preset names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	return out
}

type presetFile struct {
	Presets []AnalysisPreset `yaml:"presets"`
}

// LoadFile merges presets from a YAML file over the built-in set. Entries
// with a name that already exists replace the built-in definition.
func LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read preset file: %w", err)
	}
	var pf presetFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse preset file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, p := range pf.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("preset file %s: preset with empty name", path)
		}
		if p.Depth <= 0 && p.MoveTimeMillis <= 0 && p.MateIn <= 0 && !p.Infinite {
			return fmt.Errorf("preset %q: no search limit set", name)
		}
		p.Name = name
		presets[name] = p
	}
	return nil
}
