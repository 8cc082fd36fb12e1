package td

// GenerateMap builds a walkability mask from a seed: a recursive-
// backtracking maze is carved on an N x N cell grid, solved by BFS
// into a corridor, upscaled 3x, and the corridor spine is dilated by a
// row-indexed noise radius so the final path reads as an organic
// region rather than a one-cell-wide corridor. No noise or
// maze-generation library exists anywhere in the retrieved example
// pack, so both are hand-rolled here.
//
// Generation is total: for any seed, a traversable route from spawn
// to goal exists, because the maze is always solvable and the
// upscale preserves every corridor cell as walkable.
func GenerateMap(width, height uint16, seed uint64) (walkable []bool, spawn, goal Point) {
	mazeW, mazeH := int(width)/3, int(height)/3
	if mazeW < 2 {
		mazeW = 2
	}
	if mazeH < 2 {
		mazeH = 2
	}

	rng := newSplitMix64(seed)
	maze := carveMaze(mazeW, mazeH, rng)
	corridor := solveMaze(maze, mazeW, mazeH)

	walkable = make([]bool, int(width)*int(height))
	idx := func(x, y int) int { return y*int(width) + x }

	spine := make([]bool, int(width)*int(height))
	for _, cell := range corridor {
		ux, uy := cell.x*3, cell.y*3
		for dy := 0; dy < 3; dy++ {
			for dx := 0; dx < 3; dx++ {
				x, y := ux+dx, uy+dy
				if x < int(width) && y < int(height) {
					spine[idx(x, y)] = true
				}
			}
		}
	}

	dist := distanceToSpine(spine, int(width), int(height))

	lattice := newValueNoiseLattice(seed, 256)
	for y := 0; y < int(height); y++ {
		radius := noiseRadius(lattice, y, 30)
		for x := 0; x < int(width); x++ {
			if spine[idx(x, y)] || dist[idx(x, y)] <= radius {
				walkable[idx(x, y)] = true
			}
		}
	}

	// The corridor's two BFS endpoints become spawn and goal: solveMaze
	// returns the path goal-to-start, so corridor[0] is the maze exit and
	// corridor[len-1] is its entrance.
	entrance := corridor[len(corridor)-1]
	exit := corridor[0]
	spawn = Point{uint16(entrance.x*3 + 1), uint16(entrance.y*3 + 1)}
	goal = Point{uint16(exit.x*3 + 1), uint16(exit.y*3 + 1)}
	walkable[idx(int(spawn.X), int(spawn.Y))] = true
	walkable[idx(int(goal.X), int(goal.Y))] = true

	return walkable, spawn, goal
}

type mazeCell struct{ x, y int }

// carveMaze runs recursive backtracking over an n x n logical grid,
// returning, for each cell, which of its four cardinal neighbors are
// open (not separated by a wall).
func carveMaze(width, height int, rng *splitMix64) [][4]bool {
	open := make([][4]bool, width*height) // N, E, S, W
	visited := make([]bool, width*height)
	idx := func(x, y int) int { return y*width + x }

	type frame struct{ x, y int }
	stack := []frame{{0, 0}}
	visited[idx(0, 0)] = true

	dirs := [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	opposite := [4]int{2, 3, 0, 1}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		order := rng.permutation4()
		advanced := false
		for _, d := range order {
			nx, ny := cur.x+dirs[d][0], cur.y+dirs[d][1]
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			if visited[idx(nx, ny)] {
				continue
			}
			open[idx(cur.x, cur.y)][d] = true
			open[idx(nx, ny)][opposite[d]] = true
			visited[idx(nx, ny)] = true
			stack = append(stack, frame{nx, ny})
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
		}
	}

	return open
}

// solveMaze runs BFS from (0,0) to (width-1,height-1) over the maze
// graph and returns the corridor path as a sequence of maze cells.
func solveMaze(open [][4]bool, width, height int) []mazeCell {
	idx := func(x, y int) int { return y*width + x }
	goal := idx(width-1, height-1)

	parent := make([]int, width*height)
	for i := range parent {
		parent[i] = -1
	}
	visited := make([]bool, width*height)
	visited[0] = true
	queue := []int{0}

	dirs := [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			break
		}
		cx, cy := cur%width, cur/width
		for d := 0; d < 4; d++ {
			if !open[cur][d] {
				continue
			}
			nx, ny := cx+dirs[d][0], cy+dirs[d][1]
			nidx := idx(nx, ny)
			if visited[nidx] {
				continue
			}
			visited[nidx] = true
			parent[nidx] = cur
			queue = append(queue, nidx)
		}
	}

	var path []mazeCell
	for cur := goal; cur != -1; cur = parent[cur] {
		path = append(path, mazeCell{cur % width, cur / width})
		if cur == 0 {
			break
		}
	}
	return path
}

// distanceToSpine computes, per cell, the Manhattan distance to the
// nearest spine cell via 4-connected multi-source BFS.
func distanceToSpine(spine []bool, width, height int) []int {
	dist := make([]int, width*height)
	for i := range dist {
		dist[i] = -1
	}
	var queue []int
	for i, v := range spine {
		if v {
			dist[i] = 0
			queue = append(queue, i)
		}
	}

	dirs := [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cx, cy := cur%width, cur/width
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			nidx := ny*width + nx
			if dist[nidx] != -1 {
				continue
			}
			dist[nidx] = dist[cur] + 1
			queue = append(queue, nidx)
		}
	}
	return dist
}

// noiseRadius samples the value-noise lattice at row, scaled to an
// integer dilation radius of base_radius + amplitude * noise(row).
func noiseRadius(lattice []float64, row int, period int) int {
	const baseRadius = 1.0
	const amplitude = 2.0
	n := sampleLattice(lattice, row, period)
	return int(baseRadius + amplitude*n)
}

// newValueNoiseLattice builds a fixed-size table of pseudo-random
// values in [0, 1) seeded deterministically from the map seed.
func newValueNoiseLattice(seed uint64, size int) []float64 {
	rng := newSplitMix64(seed ^ 0x9e3779b97f4a7c15)
	lattice := make([]float64, size)
	for i := range lattice {
		lattice[i] = float64(rng.next()%1_000_000) / 1_000_000.0
	}
	return lattice
}

// sampleLattice does linear interpolation between lattice cells at a
// period-scaled position, the standard 1D value-noise evaluation.
func sampleLattice(lattice []float64, row int, period int) float64 {
	n := len(lattice)
	cellF := float64(row%period) / float64(period) * float64(n)
	i0 := int(cellF) % n
	i1 := (i0 + 1) % n
	frac := cellF - float64(int(cellF))
	return lattice[i0]*(1-frac) + lattice[i1]*frac
}

// splitMix64 is a small, fast, deterministic PRNG used only for
// reproducible map generation; no third-party rng is warranted for
// this scope.
type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (s *splitMix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// permutation4 returns a uniformly random permutation of {0,1,2,3}
// via Fisher-Yates, used to randomize maze-carving direction order.
func (s *splitMix64) permutation4() [4]int {
	p := [4]int{0, 1, 2, 3}
	for i := 3; i > 0; i-- {
		j := int(s.next() % uint64(i+1))
		p[i], p[j] = p[j], p[i]
	}
	return p
}
