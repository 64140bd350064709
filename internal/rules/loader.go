package rules

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LoadRules layers the rule files of each directory over the shipped
// defaults. A rule replaces any rule with its ID from an earlier layer,
// but two files in the same directory may not define the same ID. Empty
// or missing directories are skipped. The result is ordered by ID.
func LoadRules(dirs ...string) ([]Rule, error) {
	defaults, err := DefaultRules()
	if err != nil {
		return nil, fmt.Errorf("loading default rules: %w", err)
	}
	merged := make(map[string]Rule, len(defaults))
	for _, r := range defaults {
		merged[r.ID] = r
	}

	for _, dir := range dirs {
		layer, err := loadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", dir, err)
		}
		maps.Copy(merged, layer)
	}

	out := make([]Rule, 0, len(merged))
	for _, id := range slices.Sorted(maps.Keys(merged)) {
		out = append(out, merged[id])
	}
	return out, nil
}

func isRuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadDir reads the rule files directly inside dir, keyed by rule ID
func loadDir(dir string) (map[string]Rule, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	layer := make(map[string]Rule)
	origin := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isRuleFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		rf, err := ParseRuleFile(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		for _, r := range rf.Rules {
			if prev, dup := origin[r.ID]; dup && prev != entry.Name() {
				return nil, fmt.Errorf("rule %q defined in both %s and %s", r.ID, prev, entry.Name())
			}
			origin[r.ID] = entry.Name()
			layer[r.ID] = r
		}
	}
	return layer, nil
}
