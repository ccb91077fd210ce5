package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chuyiting/pointconv/internal/mcc"
)

// Config drives a hierarchy build from the command line.
type Config struct {
	// Name labels the hierarchy; empty picks a random identity.
	Name string `yaml:"name"`
	// Relative treats radii as fractions of the cloud extent.
	Relative bool `yaml:"relative"`
	// Radii holds one Poisson-disk radius per coarsening level.
	Radii []float32 `yaml:"radii"`
	// UseNormals feeds point normals as the input features when the
	// cloud file carries them.
	UseNormals bool          `yaml:"use_normals"`
	Density    DensityConfig `yaml:"density"`
}

// DensityConfig selects the kernel density estimate on the finest level.
type DensityConfig struct {
	Window float32 `yaml:"window"`
	Kernel string  `yaml:"kernel"`
}

// DefaultConfig returns the settings used when no config file is given:
// the two-level relative build with the smooth density kernel.
func DefaultConfig() Config {
	return Config{
		Relative: true,
		Radii:    []float32{0.1, 0.4},
		Density: DensityConfig{
			Window: mcc.DefaultKDEWindow,
			Kernel: "smooth",
		},
	}
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config file not found: %s", path)
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the geometry core would refuse anyway, with
// clearer messages.
func (c Config) Validate() error {
	if len(c.Radii) == 0 {
		return fmt.Errorf("at least one radius is required")
	}
	for i, r := range c.Radii {
		if r <= 0 {
			return fmt.Errorf("radii[%d] = %g, must be positive", i, r)
		}
		if i > 0 && r <= c.Radii[i-1] {
			return fmt.Errorf("radii[%d] = %g does not grow past radii[%d] = %g", i, r, i-1, c.Radii[i-1])
		}
		if c.Relative && r > 1 {
			return fmt.Errorf("radii[%d] = %g exceeds 1 in relative mode", i, r)
		}
	}
	if c.Density.Window <= 0 {
		return fmt.Errorf("density.window = %g, must be positive", c.Density.Window)
	}
	if _, err := c.DensityKernel(); err != nil {
		return err
	}
	return nil
}

// DensityKernel maps the config string onto the estimator's kernel.
func (c Config) DensityKernel() (mcc.DensityKernel, error) {
	switch c.Density.Kernel {
	case "", "smooth":
		return mcc.KernelSmooth, nil
	case "uniform":
		return mcc.KernelUniform, nil
	default:
		return 0, fmt.Errorf("unknown density.kernel %q (want smooth or uniform)", c.Density.Kernel)
	}
}
