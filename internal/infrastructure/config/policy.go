package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bibbank/profileguard/internal/domain/service"
)

// LoadScoringPolicy returns the default policy, overlaid with the YAML file at
// path when one is given. Fields absent from the file keep their defaults. A
// file that changes any scoring value must also change the version.
func LoadScoringPolicy(path string) (service.ScoringPolicy, error) {
	defaults := service.DefaultScoringPolicy()
	policy := defaults
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return service.ScoringPolicy{}, fmt.Errorf("reading scoring policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return service.ScoringPolicy{}, fmt.Errorf("decoding scoring policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return service.ScoringPolicy{}, fmt.Errorf("scoring policy %s: %w", path, err)
	}
	if policy.Version == defaults.Version && !policy.ScoresLike(defaults) {
		return service.ScoringPolicy{}, fmt.Errorf("scoring policy %s changes scoring values but keeps version %q", path, defaults.Version)
	}
	return policy, nil
}
