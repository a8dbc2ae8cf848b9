package feedsim

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/stadu/internal/domain/model"
)

// Message is the wire form. ID and SentAt are extras a lenient reader ignores.
type Message struct {
	Type       string `json:"type"`
	Gate       string `json:"gate"`
	ShirtColor string `json:"shirtColor"`
	ID         string `json:"id"`
	SentAt     int64  `json:"sentAt"`
}

// Generator draws entry events from a scenario. Safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	scenario  Scenario
	gateSum   int
	colorSum  int
	generated int
	now       func() time.Time
}

// NewGenerator creates a generator for s. s must be valid.
func NewGenerator(s Scenario) *Generator {
	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		scenario: s,
		gateSum:  sum(s.Gates),
		colorSum: sum(s.Colors),
		now:      time.Now,
	}
}

// Next returns the next event.
func (g *Generator) Next() model.EntryEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generated++
	return model.EntryEvent{
		Type:       "ENTRY",
		Gate:       g.pick(g.scenario.Gates, g.gateSum),
		ShirtColor: g.pick(g.scenario.Colors, g.colorSum),
	}
}

// NextPayload returns the next encoded message, or a deliberately broken
// payload when the scenario asks for one.
func (g *Generator) NextPayload() []byte {
	ev := g.Next()

	g.mu.Lock()
	n := g.generated
	g.mu.Unlock()
	if every := g.scenario.MalformedEvery; every > 0 && n%every == 0 {
		return []byte(`{"type":"ENTRY","gate":`)
	}

	b, _ := json.Marshal(Message{
		Type:       ev.Type,
		Gate:       ev.Gate,
		ShirtColor: ev.ShirtColor,
		ID:         uuid.NewString(),
		SentAt:     g.now().UnixMilli(),
	})
	return b
}

// Generated returns how many events were drawn.
func (g *Generator) Generated() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generated
}

func (g *Generator) pick(ws []Weighted, total int) string {
	r := g.rng.IntN(total)
	for _, w := range ws {
		if r < w.Weight {
			return w.Value
		}
		r -= w.Weight
	}
	return ws[len(ws)-1].Value
}

func sum(ws []Weighted) int {
	total := 0
	for _, w := range ws {
		total += w.Weight
	}
	return total
}
