package strategies

import "github.com/andrescamacho/autobuild-go/internal/application/planner"

// RegisterBuiltins adds the strategies compiled into the binary
func RegisterBuiltins(registry *planner.Registry) error {
	return registry.Register(DefaultName, TargetsFactory(DefaultName, DefaultTargets))
}

// NewRegistry returns a registry with the builtins and, when scriptsDir is
// not empty, every script found there.
func NewRegistry(scriptsDir string) (*planner.Registry, error) {
	registry := planner.NewRegistry()
	if err := RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	if scriptsDir != "" {
		if _, err := LoadScripts(registry, scriptsDir); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
