package geom

import "math"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func CeilDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r > 0 {
		q++
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// FloorToInt floors a world-space float into the integer grid.
func FloorToInt(v float32) int {
	return int(math.Floor(float64(v)))
}

// CeilToInt ceils a world-space float into the integer grid.
func CeilToInt(v float32) int {
	return int(math.Ceil(float64(v)))
}
