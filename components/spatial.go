package components

// Position is an entity's location on the X/Z floor plane.
type Position struct {
	X, Z float64
}

// Rotation is an entity's facing.
type Rotation struct {
	Heading float64 // degrees, 0 faces +Z
}
