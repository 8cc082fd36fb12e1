package td

import (
	"container/heap"
)

// neighbor step order: N, NE, E, SE, S, SW, W, NW. No priority-queue
// or pathfinding library exists anywhere in the retrieved example
// pack, so the distance field below uses stdlib container/heap.
var neighborSteps = [8][2]int32{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

const (
	cardinalCost = uint32(10)
	diagonalCost = uint32(14)
)

func isDiagonal(i int) bool { return i%2 == 1 }

func neighborCost(i int) uint32 {
	if isDiagonal(i) {
		return diagonalCost
	}
	return cardinalCost
}

// diagonalAllowed forbids cutting a corner: a diagonal step is only
// legal if both flanking cardinal cells are open.
func diagonalAllowed(g *Grid, x, y uint16, dx, dy int32) bool {
	cx1, cy1 := uint16(int32(x)+dx), y
	cx2, cy2 := x, uint16(int32(y)+dy)
	return !g.Blocked(cx1, cy1) && !g.Blocked(cx2, cy2)
}

type distHeapItem struct {
	dist uint32
	idx  int
}

type distHeap []distHeapItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distHeapItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ComputeDistanceField runs Dijkstra from the goal cell over the
// grid's current blocked set, honoring the no-corner-cut rule. dist
// must have length width*height; it is overwritten in place. If the
// goal itself is blocked, the field is left all-distMax.
func ComputeDistanceField(g *Grid, goal Point, dist []uint32) {
	for i := range dist {
		dist[i] = distMax
	}

	goalIdx := g.Idx(goal.X, goal.Y)
	if g.BlockedIdx(goalIdx) {
		return
	}

	dist[goalIdx] = 0
	h := &distHeap{{dist: 0, idx: goalIdx}}
	heap.Init(h)

	width := int(g.Width)
	height := int(g.Height)

	for h.Len() > 0 {
		item := heap.Pop(h).(distHeapItem)
		if item.dist > dist[item.idx] {
			continue
		}
		x := uint16(item.idx % width)
		y := uint16(item.idx / width)

		for i, step := range neighborSteps {
			nx := int32(x) + step[0]
			ny := int32(y) + step[1]
			if nx < 0 || ny < 0 || nx >= int32(width) || ny >= int32(height) {
				continue
			}
			nidx := g.Idx(uint16(nx), uint16(ny))
			if g.BlockedIdx(nidx) {
				continue
			}
			if isDiagonal(i) && !diagonalAllowed(g, x, y, step[0], step[1]) {
				continue
			}
			newDist := item.dist + neighborCost(i)
			if newDist < dist[nidx] {
				dist[nidx] = newDist
				heap.Push(h, distHeapItem{dist: newDist, idx: nidx})
			}
		}
	}
}

// MoveOutcomeKind tags what happened when a mob arrived at a cell
// center and needed a new target.
type MoveOutcomeKind uint8

const (
	OutcomeNextTarget MoveOutcomeKind = iota
	OutcomeLeaked
	OutcomeAttackTower
)

type MoveOutcome struct {
	Kind    MoveOutcomeKind
	Target  Point
	TowerId Key
	HasTower bool
}

// PickNextTarget decides what a mob standing at (x, y) should do
// next: leak if at the goal, otherwise step toward the lowest-distance
// legal neighbor, or fall back to a frontier attack / BFS-toward-tower
// when the cell is cut off from the goal.
func PickNextTarget(state *State, x, y uint16) MoveOutcome {
	if x == state.Config.Goal.X && y == state.Config.Goal.Y {
		return MoveOutcome{Kind: OutcomeLeaked}
	}

	g := state.World.Grid
	cellIdx := g.Idx(x, y)
	cellDist := state.Dist[cellIdx]

	if cellDist != distMax {
		bestDist := cellDist
		var best Point
		found := false

		for i, step := range neighborSteps {
			nx := int32(x) + step[0]
			ny := int32(y) + step[1]
			if nx < 0 || ny < 0 || nx >= int32(g.Width) || ny >= int32(g.Height) {
				continue
			}
			nidx := g.Idx(uint16(nx), uint16(ny))
			if g.BlockedIdx(nidx) {
				continue
			}
			if isDiagonal(i) && !diagonalAllowed(g, x, y, step[0], step[1]) {
				continue
			}
			if nd := state.Dist[nidx]; nd < bestDist {
				bestDist = nd
				best = Point{uint16(nx), uint16(ny)}
				found = true
			}
		}

		if found {
			return MoveOutcome{Kind: OutcomeNextTarget, Target: best}
		}
	}

	if towerId, ok := findAttackTarget(state, x, y); ok {
		return MoveOutcome{Kind: OutcomeAttackTower, TowerId: towerId, HasTower: true}
	}

	if target, ok := findMoveTowardTower(state, x, y); ok {
		return MoveOutcome{Kind: OutcomeNextTarget, Target: target}
	}

	return MoveOutcome{Kind: OutcomeAttackTower, HasTower: false}
}

type attackCandidate struct {
	towerId Key
	score   uint32
	hp      int32
	order   int
}

// findAttackTarget applies the frontier heuristic: among adjacent
// towers, prefer the one whose own neighbors are closest to the main
// path, tie-broken by lower hp then fixed neighbor order.
func findAttackTarget(state *State, x, y uint16) (Key, bool) {
	g := state.World.Grid
	var candidates []attackCandidate

	for i, step := range neighborSteps {
		nx := int32(x) + step[0]
		ny := int32(y) + step[1]
		if nx < 0 || ny < 0 || nx >= int32(g.Width) || ny >= int32(g.Height) {
			continue
		}
		towerId, ok := g.TowerAt(uint16(nx), uint16(ny))
		if !ok {
			continue
		}
		tower, ok := state.World.Towers.Get(towerId)
		if !ok {
			continue
		}
		score := frontierScore(state, uint16(nx), uint16(ny))
		candidates = append(candidates, attackCandidate{towerId: towerId, score: score, hp: tower.Hp, order: i})
	}

	if len(candidates) == 0 {
		return Key{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score < best.score ||
			(c.score == best.score && c.hp < best.hp) ||
			(c.score == best.score && c.hp == best.hp && c.order < best.order) {
			best = c
		}
	}
	return best.towerId, true
}

// frontierScore is the minimum distance-field value of a tower's
// walkable neighbors: a proxy for how close that tower sits to the
// live path.
func frontierScore(state *State, tx, ty uint16) uint32 {
	g := state.World.Grid
	minDist := distMax

	for _, step := range neighborSteps {
		nx := int32(tx) + step[0]
		ny := int32(ty) + step[1]
		if nx < 0 || ny < 0 || nx >= int32(g.Width) || ny >= int32(g.Height) {
			continue
		}
		nidx := g.Idx(uint16(nx), uint16(ny))
		if g.BlockedIdx(nidx) {
			continue
		}
		if d := state.Dist[nidx]; d < minDist {
			minDist = d
		}
	}
	return minDist
}

// findMoveTowardTower runs a BFS from (x,y) over open cells until it
// discovers the first blocked (tower) cell, then backtracks to return
// the first step of that path.
func findMoveTowardTower(state *State, x, y uint16) (Point, bool) {
	g := state.World.Grid
	width, height := int(g.Width), int(g.Height)
	size := width * height

	visited := make([]bool, size)
	parent := make([]int, size)
	for i := range parent {
		parent[i] = -1
	}

	startIdx := g.Idx(x, y)
	visited[startIdx] = true
	queue := []int{startIdx}

	targetIdx := -1

outer:
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		cx := uint16(idx % width)
		cy := uint16(idx / width)

		for i, step := range neighborSteps {
			nx := int32(cx) + step[0]
			ny := int32(cy) + step[1]
			if nx < 0 || ny < 0 || nx >= int32(width) || ny >= int32(height) {
				continue
			}
			nidx := g.Idx(uint16(nx), uint16(ny))
			if visited[nidx] {
				continue
			}
			if isDiagonal(i) && !diagonalAllowed(g, cx, cy, step[0], step[1]) {
				continue
			}
			if !g.Walkable[nidx] {
				continue
			}
			if g.BlockedIdx(nidx) {
				targetIdx = idx
				break outer
			}
			visited[nidx] = true
			parent[nidx] = idx
			queue = append(queue, nidx)
		}
	}

	if targetIdx < 0 {
		return Point{}, false
	}

	current := targetIdx
	for parent[current] != -1 && parent[current] != startIdx {
		current = parent[current]
	}
	if current == startIdx {
		return Point{}, false
	}
	return Point{uint16(current % width), uint16(current / width)}, true
}

// FindTowerTarget picks the in-range mob with the minimum squared
// distance to the tower center, ties broken by lower hp.
func FindTowerTarget(state *State, tx, ty uint16, rangeCells uint16) (Key, bool) {
	rangeSq := float64(rangeCells) * float64(rangeCells)
	tcx := float64(tx) + 0.5
	tcy := float64(ty) + 0.5

	var best Key
	var bestDist float64
	var bestHp int32
	found := false

	for _, key := range state.World.Mobs.Keys() {
		mob, _ := state.World.Mobs.Get(key)
		dx := mob.X - tcx
		dy := mob.Y - tcy
		distSq := dx*dx + dy*dy
		if distSq > rangeSq {
			continue
		}
		if !found || distSq < bestDist || (distSq == bestDist && mob.Hp < bestHp) {
			best = key
			bestDist = distSq
			bestHp = mob.Hp
			found = true
		}
	}
	return best, found
}
