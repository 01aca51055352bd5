package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecoview/camera"
	"github.com/pthm-cable/ecoview/components"
)

// Batch groups circle shapes so they are issued in one pass per frame.
// Shapes are entities in an ECS world; a Shape is a handle to one of them.
type Batch struct {
	world   *ecs.World
	mapper  *ecs.Map4[components.Position, components.Circle, components.Tint, components.Organism]
	filter  *ecs.Filter4[components.Position, components.Circle, components.Tint, components.Organism]
	posMap  *ecs.Map[components.Position]
	tintMap *ecs.Map[components.Tint]
	circMap *ecs.Map[components.Circle]
	count   int
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	world := ecs.NewWorld()
	return &Batch{
		world:   world,
		mapper:  ecs.NewMap4[components.Position, components.Circle, components.Tint, components.Organism](world),
		filter:  ecs.NewFilter4[components.Position, components.Circle, components.Tint, components.Organism](world),
		posMap:  ecs.NewMap[components.Position](world),
		tintMap: ecs.NewMap[components.Tint](world),
		circMap: ecs.NewMap[components.Circle](world),
	}
}

// Shape is a handle to a circle in a Batch.
type Shape struct {
	batch  *Batch
	entity ecs.Entity
}

// ShapeState is a read-only copy of a shape's visual attributes.
type ShapeState struct {
	X, Y   float32
	Radius float32
	Color  rl.Color
}

// Add creates a circle in the batch and returns its handle.
func (b *Batch) Add(id string, x, y, radius float32, color rl.Color) Shape {
	pos := components.Position{X: x, Y: y}
	circ := components.Circle{Radius: radius}
	tint := toTint(color)
	org := components.Organism{ID: id}
	e := b.mapper.NewEntity(&pos, &circ, &tint, &org)
	b.count++
	return Shape{batch: b, entity: e}
}

// Remove detaches the shape from the batch. It is no longer drawn.
func (b *Batch) Remove(s Shape) {
	if s.batch != b || !b.world.Alive(s.entity) {
		return
	}
	b.world.RemoveEntity(s.entity)
	b.count--
}

// Len returns the number of shapes in the batch.
func (b *Batch) Len() int {
	return b.count
}

// Draw issues every shape to the window, mapped through the camera.
func (b *Batch) Draw(win Window, cam *camera.Camera) {
	query := b.filter.Query()
	for query.Next() {
		pos, circ, tint, _ := query.Get()
		sx, sy := cam.WorldToScreen(pos.X, pos.Y)
		win.DrawCircle(rl.Vector2{X: sx, Y: sy}, cam.Scale(circ.Radius), fromTint(*tint))
	}
}

// Release drops every shape. The batch must not be used afterwards.
func (b *Batch) Release() {
	b.world = nil
	b.mapper = nil
	b.filter = nil
	b.posMap = nil
	b.tintMap = nil
	b.circMap = nil
	b.count = 0
}

// Alive reports whether the shape is still part of its batch.
func (s Shape) Alive() bool {
	return s.batch != nil && s.batch.world != nil && s.batch.world.Alive(s.entity)
}

// SetPosition moves the shape's center.
func (s Shape) SetPosition(x, y float32) {
	pos := s.batch.posMap.Get(s.entity)
	pos.X, pos.Y = x, y
}

// SetColor changes the shape's fill color.
func (s Shape) SetColor(c rl.Color) {
	*s.batch.tintMap.Get(s.entity) = toTint(c)
}

// State returns a copy of the shape's visual attributes.
func (s Shape) State() ShapeState {
	pos := s.batch.posMap.Get(s.entity)
	circ := s.batch.circMap.Get(s.entity)
	tint := s.batch.tintMap.Get(s.entity)
	return ShapeState{X: pos.X, Y: pos.Y, Radius: circ.Radius, Color: fromTint(*tint)}
}

func toTint(c rl.Color) components.Tint {
	return components.Tint{R: c.R, G: c.G, B: c.B, A: c.A}
}

func fromTint(t components.Tint) rl.Color {
	return rl.Color{R: t.R, G: t.G, B: t.B, A: t.A}
}
