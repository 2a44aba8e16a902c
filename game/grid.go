package game

// Arena dimensions. The outer ring is always wall after a level load, so the
// playable interior is (Width-2)x(Height-2).
const (
	Width  = 40
	Height = 24
)

// Grid is a fixed Width x Height array of cells, row-major. Indexing is
// y*Width+x; At hands out pointers into the backing array so callers mutate
// slots in place.
type Grid struct {
	Cells [Width * Height]Cell
}

// Index returns the linear offset for (x, y). Callers must pass in-bounds
// coordinates; use InBounds first when the coordinate is derived.
func Index(x, y int) int {
	return y*Width + x
}

// InBounds reports whether (x, y) addresses a grid slot.
func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// At returns the cell at (x, y) for in-place mutation.
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[Index(x, y)]
}

// Clear resets every cell to Empty.
func (g *Grid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = Cell{}
	}
}
