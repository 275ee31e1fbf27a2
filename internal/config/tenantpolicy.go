package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTenantPolicy reads a tenant policy override file. The result is the
// raw configuration map the policy agent merges over built-in defaults;
// unrecognized keys or values are carried through and ignored downstream.
func LoadTenantPolicy(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant policy %s: %w", path, err)
	}

	var cfg map[string]interface{}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse tenant policy %s: %w", path, err)
	}
	return cfg, nil
}
