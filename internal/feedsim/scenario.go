// Package feedsim serves a synthetic entry-event feed over WebSocket so the
// admission service can run end to end without real turnstiles.
package feedsim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario wraps every scenario validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Weighted is a value drawn with relative probability Weight.
type Weighted struct {
	Value  string `yaml:"value"`
	Weight int    `yaml:"weight"`
}

// Scenario describes what the simulator emits.
type Scenario struct {
	// Rate is events per second across all clients.
	Rate float64 `yaml:"rate"`
	// Count stops the feed after that many events. Zero runs forever.
	Count int `yaml:"count"`
	// Seed makes the stream reproducible. Zero picks a random seed.
	Seed   uint64     `yaml:"seed"`
	Gates  []Weighted `yaml:"gates"`
	Colors []Weighted `yaml:"colors"`
	// MalformedEvery sends a broken payload every n events. Zero disables it.
	MalformedEvery int `yaml:"malformed_every"`
}

// DefaultScenario mixes the four gate naming styles and mostly plain shirts.
func DefaultScenario() Scenario {
	return Scenario{
		Rate: 5,
		Gates: []Weighted{
			{Value: "Gate A", Weight: 3},
			{Value: "Gate B", Weight: 3},
			{Value: "Gate C", Weight: 3},
			{Value: "Gate D", Weight: 3},
			{Value: "Puerta Norte", Weight: 1},
			{Value: "Puerta Sur", Weight: 1},
			{Value: "East Gate", Weight: 1},
			{Value: "West Gate", Weight: 1},
		},
		Colors: []Weighted{
			{Value: "RED", Weight: 5},
			{Value: "GREEN", Weight: 3},
			{Value: "WHITE", Weight: 3},
			{Value: "BLUE", Weight: 2},
			{Value: "MULTICOLOR", Weight: 1},
		},
	}
}

// Interval returns the pause between two events, never below a microsecond.
func (s Scenario) Interval() time.Duration {
	d := time.Duration(float64(time.Second) / s.Rate)
	if d < time.Microsecond {
		return time.Microsecond
	}
	return d
}

// Validate checks rate and weights.
func (s Scenario) Validate() error {
	if s.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive", ErrInvalidScenario)
	}
	if s.Count < 0 || s.MalformedEvery < 0 {
		return fmt.Errorf("%w: count and malformed_every must not be negative", ErrInvalidScenario)
	}
	if err := validateWeights("gates", s.Gates); err != nil {
		return err
	}
	return validateWeights("colors", s.Colors)
}

func validateWeights(name string, ws []Weighted) error {
	if len(ws) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidScenario, name)
	}
	total := 0
	for _, w := range ws {
		if w.Weight < 0 {
			return fmt.Errorf("%w: %s weight for %q is negative", ErrInvalidScenario, name, w.Value)
		}
		total += w.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: %s weights sum to zero", ErrInvalidScenario, name)
	}
	return nil
}

// LoadScenario reads a YAML scenario. Fields left out keep DefaultScenario values.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML over DefaultScenario and validates the result.
func ParseScenario(data []byte) (Scenario, error) {
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}
