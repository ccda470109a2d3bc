package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	ChunkSize  int `yaml:"chunk_size"`
	TickRateHz int `yaml:"tick_rate_hz"`
	// ChunksPerTick bounds how many scheduler steps the host runs per tick.
	ChunksPerTick      int  `yaml:"chunks_per_tick"`
	ModifiersEnabled   bool `yaml:"modifiers_enabled"`
	SnapshotEveryTicks int  `yaml:"snapshot_every_ticks"`
	LogResults         bool `yaml:"log_results"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		ChunkSize:          16,
		TickRateHz:         30,
		ChunksPerTick:      8,
		ModifiersEnabled:   true,
		SnapshotEveryTicks: 0,
		LogResults:         true,
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.ChunkSize <= 0:
		return fmt.Errorf("chunk_size must be > 0 (got %d)", t.ChunkSize)
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0 (got %d)", t.TickRateHz)
	case t.ChunksPerTick <= 0:
		return fmt.Errorf("chunks_per_tick must be > 0 (got %d)", t.ChunksPerTick)
	case t.SnapshotEveryTicks < 0:
		return fmt.Errorf("snapshot_every_ticks must be >= 0 (got %d)", t.SnapshotEveryTicks)
	}
	return nil
}
