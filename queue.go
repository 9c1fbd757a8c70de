package main

import "sort"

// Number of chunks meshed per tick. This is the amortization knob
// that keeps frame time stable while a large edit or the initial load
// floods the queue.
const meshBudget = 4

// updateQueue is the set of chunk positions waiting for a remesh.
// Enqueue is idempotent, so each position appears at most once; the
// pending slice is kept sorted by Manhattan distance to the player's
// chunk, re-sorting lazily since the player moves between ticks.
type updateQueue struct {
	pending []Vec3
	queued  map[Vec3]bool
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{queued: make(map[Vec3]bool)}
}

func (q *updateQueue) Enqueue(id Vec3) {
	if q.queued[id] {
		return
	}
	q.queued[id] = true
	q.pending = append(q.pending, id)
}

func (q *updateQueue) Len() int {
	return len(q.pending)
}

// TakeBatch removes and returns up to max positions that are ready to
// mesh, closest to player first. Positions failing the ready check
// stay queued; distance is measured against the player argument of
// this call, not the one the queue was last sorted for.
func (q *updateQueue) TakeBatch(player Vec3, max int, ready func(Vec3) bool) []Vec3 {
	if len(q.pending) == 0 {
		return nil
	}

	less := func(a, b Vec3) bool {
		return a.DistanceTo(player) < b.DistanceTo(player)
	}
	// Sorting from scratch is always safe; skipping it when the order
	// still holds from the previous tick is just cheaper.
	if !sort.SliceIsSorted(q.pending, func(i, j int) bool {
		return less(q.pending[i], q.pending[j])
	}) {
		sort.Slice(q.pending, func(i, j int) bool {
			return less(q.pending[i], q.pending[j])
		})
	}

	var batch []Vec3
	kept := q.pending[:0]
	for _, id := range q.pending {
		if len(batch) < max && ready(id) {
			batch = append(batch, id)
			delete(q.queued, id)
		} else {
			kept = append(kept, id)
		}
	}
	q.pending = kept
	return batch
}

// mesher drives the per-tick meshing budget. When a pass finds no
// meshable chunk it latches stalled and skips the scan on following
// ticks until the queue size changes or Unstall is called. Both mean
// neighbour data may have arrived: edits enqueue and grow the queue,
// while plain chunk loads never touch it and must signal explicitly.
type mesher struct {
	queue      *updateQueue
	stalled    bool
	stalledLen int
}

func newMesher() *mesher {
	return &mesher{queue: newUpdateQueue()}
}

func (m *mesher) Enqueue(id Vec3) {
	m.queue.Enqueue(id)
}

// Unstall clears the stall latch. Chunk loading is the arrival path
// the size check cannot see: loading a queued chunk's neighbour makes
// it meshable without changing the queue.
func (m *mesher) Unstall() {
	m.stalled = false
}

// Step runs one budgeted meshing pass, calling build for each chunk
// taken. Returns the number of chunks meshed.
func (m *mesher) Step(player Vec3, ready func(Vec3) bool, build func(Vec3)) int {
	if m.queue.Len() == 0 {
		return 0
	}
	if m.stalled {
		if m.queue.Len() == m.stalledLen {
			return 0
		}
		m.stalled = false
	}
	batch := m.queue.TakeBatch(player, meshBudget, ready)
	if len(batch) == 0 {
		m.stalled = true
		m.stalledLen = m.queue.Len()
		return 0
	}
	for _, id := range batch {
		build(id)
	}
	return len(batch)
}
