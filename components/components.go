// Package components defines the ECS components a rendered organism is made of.
package components

// Position is a shape's center in world coordinates.
type Position struct {
	X, Y float32
}

// Circle holds the drawn radius in world units.
type Circle struct {
	Radius float32
}

// Tint is the fill color of a shape.
type Tint struct {
	R, G, B, A uint8
}

// Organism tags a shape with the identifier of the organism it draws.
type Organism struct {
	ID string
}
