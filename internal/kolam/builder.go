package kolam

import "math/rand/v2"

// DefaultConnectivity is the probability that an edge orbit is connected.
const DefaultConnectivity = 0.55

// BuildOptions controls BuildMatrix.
type BuildOptions struct {
	Symmetry Symmetry
	// Connectivity is the probability that an orbit of interior edges is
	// connected. Zero selects DefaultConnectivity; values are clamped to [0, 1].
	Connectivity float64
	// Rand supplies randomness. Nil uses an unseeded source.
	Rand *rand.Rand
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// BuildMatrix draws a matrix honouring opts.Symmetry.
func BuildMatrix(rows, cols int, opts BuildOptions) (*Matrix, error) {
	if err := opts.Symmetry.Check(rows, cols); err != nil {
		return nil, err
	}
	m, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	p := opts.Connectivity
	if p == 0 {
		p = DefaultConnectivity
	}
	p = min(max(p, 0), 1)
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	edges := newEdgeIndex(rows, cols)
	uf := newUnionFind(edges.count())
	gens := opts.Symmetry.generators(rows, cols)
	edges.each(func(r, c int, d Direction, id int) {
		for _, g := range gens {
			r2, c2, d2 := g(r, c, d)
			if id2, ok := edges.lookup(r2, c2, d2); ok {
				uf.union(id, id2)
			}
		}
	})

	// One draw per orbit, in edge order, so a seed always gives the same matrix.
	bits := make(map[int]bool)
	on := make([]bool, edges.count())
	edges.each(func(_, _ int, _ Direction, id int) {
		root := uf.find(id)
		bit, seen := bits[root]
		if !seen {
			bit = rng.Float64() < p
			bits[root] = bit
		}
		on[id] = bit
	})

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var cell Cell
			for _, d := range Directions {
				if id, ok := edges.lookup(r, c, d); ok && on[id] {
					cell = cell.With(d)
				}
			}
			m.Set(r, c, cell)
		}
	}
	return m, nil
}

// edgeIndex numbers the interior edges of a grid: first the edges between
// horizontal neighbours, then those between vertical neighbours.
type edgeIndex struct {
	rows, cols int
}

func newEdgeIndex(rows, cols int) edgeIndex { return edgeIndex{rows: rows, cols: cols} }

func (e edgeIndex) horizontal() int { return e.rows * (e.cols - 1) }

func (e edgeIndex) count() int { return e.horizontal() + (e.rows-1)*e.cols }

// lookup returns the id of the edge on side d of cell (r, c). Sides on the
// outer boundary have no id.
func (e edgeIndex) lookup(r, c int, d Direction) (int, bool) {
	switch d {
	case Left:
		c--
		d = Right
	case Up:
		r--
		d = Down
	}
	if r < 0 || c < 0 {
		return 0, false
	}
	if d == Right {
		if r >= e.rows || c >= e.cols-1 {
			return 0, false
		}
		return r*(e.cols-1) + c, true
	}
	if r >= e.rows-1 || c >= e.cols {
		return 0, false
	}
	return e.horizontal() + r*e.cols + c, true
}

func (e edgeIndex) each(fn func(r, c int, d Direction, id int)) {
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols-1; c++ {
			id, _ := e.lookup(r, c, Right)
			fn(r, c, Right, id)
		}
	}
	for r := 0; r < e.rows-1; r++ {
		for c := 0; c < e.cols; c++ {
			id, _ := e.lookup(r, c, Down)
			fn(r, c, Down, id)
		}
	}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
