package vmap

// squareMap returns a map with one square sector of side n at (x0,y0).
func squareMap(x0, y0, n float32) *Map {
	m := &Map{
		ID: "m1",
		Vertices: []Vertex{
			{ID: 1, X: x0, Y: y0},
			{ID: 2, X: x0 + n, Y: y0},
			{ID: 3, X: x0 + n, Y: y0 + n},
			{ID: 4, X: x0, Y: y0 + n},
		},
		Linedefs: []Linedef{
			{ID: 1, Start: 1, End: 2},
			{ID: 2, Start: 2, End: 3},
			{ID: 3, Start: 3, End: 4},
			{ID: 4, Start: 4, End: 1},
		},
		Sectors: []Sector{{ID: 1, Linedefs: []int{1, 2, 3, 4}}},
	}
	m.Reindex()
	return m
}
