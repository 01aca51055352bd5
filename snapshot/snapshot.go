// Package snapshot defines the ecosystem state records the renderer consumes
// and the decoding layer that fills in their documented defaults.
package snapshot

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields absent from an organism record.
const (
	DefaultSize   float32 = 5
	DefaultEnergy float64 = 100
)

var (
	// ErrMissingID is returned when an organism record has no id.
	ErrMissingID = errors.New("snapshot: organism id missing")
	// ErrMissingPosition is returned when an ecosystem entry has no position.
	ErrMissingPosition = errors.New("snapshot: organism position missing")
	// ErrMissingOrganisms is returned when an ecosystem record has no organisms field.
	ErrMissingOrganisms = errors.New("snapshot: organisms missing")
)

// Position is a 2D world coordinate. The origin is the bottom-left corner.
type Position struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
}

// Organism describes one organism at a point in time.
type Organism struct {
	ID       string   `yaml:"id" json:"id"`
	Position Position `yaml:"position" json:"position"`
	Size     float32  `yaml:"size" json:"size"`
	Energy   float64  `yaml:"energy" json:"energy"`
}

// NewOrganism returns a record for id with every optional field defaulted.
func NewOrganism(id string) Organism {
	return Organism{ID: id, Size: DefaultSize, Energy: DefaultEnergy}
}

// Resources holds the shared ecosystem resource pools.
type Resources struct {
	Nutrients float64 `yaml:"nutrients" json:"nutrients"`
	Water     float64 `yaml:"water" json:"water"`
	Light     float64 `yaml:"light" json:"light"`
}

// Environment holds the abiotic conditions of the ecosystem.
type Environment struct {
	Temperature float64   `yaml:"temperature" json:"temperature"`
	Humidity    float64   `yaml:"humidity" json:"humidity"`
	PH          float64   `yaml:"pH" json:"pH"`
	Resources   Resources `yaml:"resources" json:"resources"`
}

// Ecosystem is the full simulation state at one instant.
type Ecosystem struct {
	Tick        uint64 `yaml:"tick" json:"tick"`
	Environment `yaml:",inline"`
	Organisms   map[string]Organism `yaml:"organisms" json:"organisms"`
}

// rawPosition and rawOrganism mirror the wire shape with presence tracking.
type rawPosition struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
}

type rawOrganism struct {
	ID       yaml.Node    `yaml:"id"`
	Position *rawPosition `yaml:"position"`
	Size     *float64     `yaml:"size"`
	Energy   *float64     `yaml:"energy"`
}

type rawEcosystem struct {
	Tick        uint64 `yaml:"tick"`
	Environment `yaml:",inline"`
	Organisms   *map[string]rawOrganism `yaml:"organisms"`
}

// id returns the scalar id value. Any scalar is accepted so numeric ids
// from JSON producers map to their decimal string form.
func (r *rawOrganism) id() (string, bool) {
	if r.ID.Kind != yaml.ScalarNode || r.ID.Tag == "!!null" || r.ID.Value == "" {
		return "", false
	}
	return r.ID.Value, true
}

func (r *rawOrganism) resolve(id string) Organism {
	o := NewOrganism(id)
	if r.Position != nil {
		if r.Position.X != nil {
			o.Position.X = float32(*r.Position.X)
		}
		if r.Position.Y != nil {
			o.Position.Y = float32(*r.Position.Y)
		}
	}
	if r.Size != nil {
		o.Size = float32(*r.Size)
	}
	if r.Energy != nil {
		o.Energy = *r.Energy
	}
	return o
}

// DecodeOrganism parses an organism creation record (YAML or JSON).
// The id is required; position, size and energy default when absent.
func DecodeOrganism(data []byte) (Organism, error) {
	var raw rawOrganism
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Organism{}, fmt.Errorf("decoding organism: %w", err)
	}
	id, ok := raw.id()
	if !ok {
		return Organism{}, ErrMissingID
	}
	return raw.resolve(id), nil
}

// DecodeEcosystem parses an ecosystem record (YAML or JSON).
// Each organism entry is keyed by its id and must carry a position.
func DecodeEcosystem(data []byte) (Ecosystem, error) {
	var raw rawEcosystem
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Ecosystem{}, fmt.Errorf("decoding ecosystem: %w", err)
	}
	if raw.Organisms == nil {
		return Ecosystem{}, ErrMissingOrganisms
	}

	eco := Ecosystem{
		Tick:        raw.Tick,
		Environment: raw.Environment,
		Organisms:   make(map[string]Organism, len(*raw.Organisms)),
	}
	for id, entry := range *raw.Organisms {
		if entry.Position == nil {
			return Ecosystem{}, fmt.Errorf("organism %q: %w", id, ErrMissingPosition)
		}
		eco.Organisms[id] = entry.resolve(id)
	}
	return eco, nil
}
