package host

import (
	"os"

	"gopkg.in/yaml.v2"
)

// BootstrapConfig is the host's declarative startup file: where the
// sandbox root is, which manifests to register before the scheduler
// starts, and how many cells each daemon's heap gets. Nothing in
// spec.md names a config file format; it's carried as ambient stack
// per SPEC_FULL.md §5, parsed with the same yaml.v2 the teacher
// declares in go.mod without ever importing directly.
type BootstrapConfig struct {
	SandboxRoot string   `yaml:"sandbox_root"`
	Manifests   []string `yaml:"manifests"`
	CellsPerVM  uint64   `yaml:"cells_per_vm"`
	MaxTicks    int      `yaml:"max_ticks"` // 0 means no tick limit
}

// LoadBootstrapConfig reads and parses a YAML bootstrap file from path.
func LoadBootstrapConfig(path string) (*BootstrapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &BootstrapConfig{CellsPerVM: defaultCells}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
