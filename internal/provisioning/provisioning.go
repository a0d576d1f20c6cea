// Package provisioning loads the static tenant document a tenant.Store is
// built from.
//
// The document is YAML. When no path is configured the embedded default is
// used, which provisions the tenants alice, bob and steve.
package provisioning

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/homesync-core/internal/tenant"
)

//go:embed default.yaml
var defaultDocument []byte

// Load reads the provisioning document at path, or the embedded default
// when path is empty. The result is validated before it is returned.
func Load(path string) (tenant.Seed, error) {
	data := defaultDocument
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return tenant.Seed{}, fmt.Errorf("reading provisioning file: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a provisioning document.
func Parse(data []byte) (tenant.Seed, error) {
	var seed tenant.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return tenant.Seed{}, fmt.Errorf("parsing provisioning document: %w", err)
	}
	if len(seed.Tenants) == 0 {
		return tenant.Seed{}, fmt.Errorf("%w: no tenants defined", tenant.ErrInvalidSeed)
	}
	if err := seed.Validate(); err != nil {
		return tenant.Seed{}, err
	}
	return seed, nil
}
