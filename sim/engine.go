// Package sim is a small demo ecosystem engine. It owns organism state,
// advances it on its own goroutine and publishes snapshots for the renderer.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/ecoview/config"
	"github.com/pthm-cable/ecoview/snapshot"
)

// Kind is an organism's trophic role.
type Kind uint8

const (
	Producer Kind = iota
	Consumer
	Decomposer
)

func (k Kind) String() string {
	switch k {
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	case Decomposer:
		return "decomposer"
	}
	return "unknown"
}

// ParseKind maps a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "producer":
		return Producer, nil
	case "consumer":
		return Consumer, nil
	case "decomposer":
		return Decomposer, nil
	}
	return 0, fmt.Errorf("unknown organism type %q", s)
}

// Traits are the heritable parameters of an organism.
type Traits struct {
	GrowthRate          float64 `json:"growthRate"`
	ResourceConsumption float64 `json:"resourceConsumption"`
	Resilience          float64 `json:"resilience"`
}

// Environmental optimum shared by all organisms.
const (
	optimalTemperature = 25.0
	optimalHumidity    = 60.0
	optimalPH          = 7.0
)

const (
	baseNutrients   = 1000.0
	baseWater       = 1000.0
	initialEnergy   = 100.0
	growthThreshold = 50.0
	noiseTimeScale  = 0.01
)

// Publisher receives every snapshot the engine produces.
type Publisher interface {
	Put(eco *snapshot.Ecosystem)
}

// Params configures an Engine.
type Params struct {
	Width, Height  float64
	Population     int
	Speed          float64
	NoiseScale     float64
	MaxAge         int
	ReproduceAbove float64
	ReproduceCost  float64
	ReproduceProb  float64
	CycleDegrees   float64
	Seed           int64
}

// ParamsFromConfig builds engine parameters from the loaded config.
func ParamsFromConfig(cfg *config.Config, seed int64) Params {
	return Params{
		Width:          float64(cfg.Derived.WorldW32),
		Height:         float64(cfg.Derived.WorldH32),
		Population:     cfg.Demo.Population,
		Speed:          cfg.Demo.Speed,
		NoiseScale:     cfg.Demo.NoiseScale,
		MaxAge:         cfg.Demo.MaxAge,
		ReproduceAbove: cfg.Demo.ReproduceAbove,
		ReproduceCost:  cfg.Demo.ReproduceCost,
		ReproduceProb:  cfg.Demo.ReproduceProb,
		CycleDegrees:   cfg.Demo.CycleDegrees,
		Seed:           seed,
	}
}

type organism struct {
	id     string
	kind   Kind
	traits Traits
	x, y   float64
	dx, dy float64
	energy float64
	age    int
}

// Engine advances the demo ecosystem. It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	p         Params
	rng       *rand.Rand
	noise     opensimplex.Noise
	organisms []*organism
	env       snapshot.Environment
	tick      uint64
	nextID    uint64
	births    int
	deaths    int
}

// NewEngine creates an engine seeded with p.Population random organisms.
func NewEngine(p Params) *Engine {
	e := &Engine{
		p:     p,
		rng:   rand.New(rand.NewSource(p.Seed)),
		noise: opensimplex.New(p.Seed),
	}
	e.updateEnvironment()
	for i := 0; i < p.Population; i++ {
		e.spawn("", Kind(i%3), e.randomTraits(), e.rng.Float64()*p.Width, e.rng.Float64()*p.Height)
	}
	return e
}

func (e *Engine) randomTraits() Traits {
	return Traits{
		GrowthRate:          1 + e.rng.Float64()*2,
		ResourceConsumption: 0.5 + e.rng.Float64(),
		Resilience:          10 + e.rng.Float64()*20,
	}
}

// newID returns the next generated id not held by a live organism.
// Callers may pick ids of the same form, so taken ones are skipped.
func (e *Engine) newID() string {
	for {
		e.nextID++
		id := fmt.Sprintf("org-%d", e.nextID)
		if e.find(id) < 0 {
			return id
		}
	}
}

// spawn appends a new organism. An empty id is replaced with a generated one.
func (e *Engine) spawn(id string, kind Kind, traits Traits, x, y float64) *organism {
	if id == "" {
		id = e.newID()
	}
	o := &organism{
		id:     id,
		kind:   kind,
		traits: traits,
		x:      x,
		y:      y,
		dx:     (e.rng.Float64() - 0.5) * e.p.Speed,
		dy:     (e.rng.Float64() - 0.5) * e.p.Speed,
		energy: initialEnergy,
	}
	e.organisms = append(e.organisms, o)
	return o
}

// ErrExists is returned by Add when the requested id is already alive.
var ErrExists = errors.New("sim: organism already exists")

// Add inserts an organism at a random position and returns its id and the
// traits it was given. An empty id is replaced with a generated one.
func (e *Engine) Add(id string, kind Kind, traits Traits) (string, Traits, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id != "" && e.find(id) >= 0 {
		return "", Traits{}, fmt.Errorf("%w: %q", ErrExists, id)
	}
	if traits.Resilience <= 0 {
		traits.Resilience = 1
	}
	o := e.spawn(id, kind, traits, e.rng.Float64()*e.p.Width, e.rng.Float64()*e.p.Height)
	return o.id, o.traits, nil
}

// Remove deletes the organism with the given id. It reports whether the
// organism was alive.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(id)
	if i < 0 {
		return false
	}
	e.organisms = append(e.organisms[:i], e.organisms[i+1:]...)
	e.deaths++
	return true
}

func (e *Engine) find(id string) int {
	for i, o := range e.organisms {
		if o.id == id {
			return i
		}
	}
	return -1
}

// Step advances the ecosystem by one tick.
func (e *Engine) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tick++
	e.updateEnvironment()

	// Iterate over the organisms alive at the start of the tick; offspring
	// appended during the loop act from the next tick on.
	current := e.organisms
	for _, o := range current {
		if o.energy <= 0 {
			continue
		}
		e.stepOrganism(o, current)
	}

	alive := e.organisms[:0]
	for _, o := range e.organisms {
		if o.energy <= 0 || o.age > e.p.MaxAge {
			e.deaths++
			continue
		}
		alive = append(alive, o)
	}
	for i := len(alive); i < len(e.organisms); i++ {
		e.organisms[i] = nil
	}
	e.organisms = alive
}

// updateEnvironment cycles conditions sinusoidally with the tick.
func (e *Engine) updateEnvironment() {
	phase := math.Sin(float64(e.tick) * e.p.CycleDegrees * math.Pi / 180)
	e.env = snapshot.Environment{
		Temperature: phase*15 + 25,
		Humidity:    60 + phase*20,
		PH:          7 + phase*0.5,
		Resources: snapshot.Resources{
			Nutrients: baseNutrients,
			Water:     baseWater,
			Light:     phase*500 + 500,
		},
	}
}

func (e *Engine) stepOrganism(o *organism, population []*organism) {
	o.energy -= o.traits.ResourceConsumption
	o.age++

	if o.energy > growthThreshold {
		o.energy += o.traits.GrowthRate
	}

	switch o.kind {
	case Producer:
		if e.env.Resources.Light >= o.traits.ResourceConsumption {
			e.env.Resources.Light -= o.traits.ResourceConsumption
			o.energy += o.traits.GrowthRate * 2
		}
	case Consumer:
		e.consume(o, population)
	case Decomposer:
		e.env.Resources.Nutrients += o.traits.ResourceConsumption
		o.energy += o.traits.GrowthRate * (e.env.Resources.Nutrients / baseNutrients) * (e.env.Humidity / 100)
	}

	tempStress := math.Abs(optimalTemperature-e.env.Temperature) / o.traits.Resilience
	humidityStress := math.Abs(optimalHumidity-e.env.Humidity) / o.traits.Resilience
	phStress := math.Abs(optimalPH-e.env.PH) / o.traits.Resilience
	o.energy -= (tempStress + humidityStress + phStress) / 3

	e.move(o)
	e.reproduce(o)
}

// consume lets a consumer eat producers that overlap it.
func (e *Engine) consume(o *organism, population []*organism) {
	reach := 2 * float64(snapshot.DefaultSize)
	for _, prey := range population {
		if prey == o || prey.kind != Producer || prey.energy <= 0 {
			continue
		}
		if math.Hypot(o.x-prey.x, o.y-prey.y) < reach {
			o.energy += prey.energy * 0.5
			prey.energy = 0
		}
	}
}

// move drifts the organism along a noise field and bounces it off the walls.
func (e *Engine) move(o *organism) {
	t := float64(e.tick) * noiseTimeScale
	s := e.p.NoiseScale
	driftX := e.noise.Eval3(o.x*s, o.y*s, t) * e.p.Speed
	driftY := e.noise.Eval3(o.x*s+100, o.y*s+100, t) * e.p.Speed

	o.x += o.dx + driftX
	o.y += o.dy + driftY

	if o.x < 0 || o.x > e.p.Width {
		o.dx = -o.dx
		o.x = clamp(o.x, 0, e.p.Width)
	}
	if o.y < 0 || o.y > e.p.Height {
		o.dy = -o.dy
		o.y = clamp(o.y, 0, e.p.Height)
	}
}

func (e *Engine) reproduce(o *organism) {
	if o.energy <= e.p.ReproduceAbove || e.rng.Float64() >= e.p.ReproduceProb {
		return
	}
	traits := Traits{
		GrowthRate:          o.traits.GrowthRate * e.jitter(),
		ResourceConsumption: o.traits.ResourceConsumption * e.jitter(),
		Resilience:          o.traits.Resilience * e.jitter(),
	}
	e.spawn("", o.kind, traits, o.x, o.y)
	o.energy -= e.p.ReproduceCost
	e.births++
}

// jitter returns a multiplier in [0.9, 1.1).
func (e *Engine) jitter() float64 {
	return 0.9 + e.rng.Float64()*0.2
}

// Snapshot returns the current state as an ecosystem record.
func (e *Engine) Snapshot() *snapshot.Ecosystem {
	e.mu.Lock()
	defer e.mu.Unlock()

	eco := &snapshot.Ecosystem{
		Tick:        e.tick,
		Environment: e.env,
		Organisms:   make(map[string]snapshot.Organism, len(e.organisms)),
	}
	for _, o := range e.organisms {
		eco.Organisms[o.id] = snapshot.Organism{
			ID:       o.id,
			Position: snapshot.Position{X: float32(o.x), Y: float32(o.y)},
			Size:     snapshot.DefaultSize,
			Energy:   o.energy,
		}
	}
	return eco
}

// Counts returns the living population and cumulative births and deaths.
func (e *Engine) Counts() (alive, births, deaths int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.organisms), e.births, e.deaths
}

// Run steps the engine every interval and publishes a snapshot after each
// step until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration, out Publisher) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out.Put(e.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Step()
			out.Put(e.Snapshot())
		}
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
