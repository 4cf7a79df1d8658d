package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the operational knob set loaded from tuning.yaml. Gameplay policy
// (costs, elevation table) is fixed in internal/sim/rules; these values only
// bound runtime behavior.
type Tuning struct {
	QueueDepth        int `yaml:"queue_depth"`
	RegulatorSpawnCap int `yaml:"regulator_spawn_cap"`

	// Outbound buffer per connection, in lines. A connection that falls
	// this far behind is dropped.
	OutboundBuffer int `yaml:"outbound_buffer"`
}

func Defaults() Tuning {
	return Tuning{
		QueueDepth:        10,
		RegulatorSpawnCap: 64,
		OutboundBuffer:    128,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
