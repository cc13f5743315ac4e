package lifetime

// MemStateSeq is a growable pair of (transient, stable) memory states.
// transients[i] is the state while op i is executing (after its
// allocations, before its frees); stables[i] is the state once op i has
// finished.
type MemStateSeq struct {
	latest     int64
	transients []int64
	stables    []int64
}

// Seed sets the baseline stable state the first Append builds on, without
// recording a step of its own. Used to pre-load memory already resident
// before the first op runs (graph inputs), which is never visible to inc
// since Op.Outputs can never reference an INPUT-kind value.
func (m *MemStateSeq) Seed(v int64) { m.latest = v }

// ComputeState previews the (transient, stable) pair Append(inc, dec) would
// produce, without mutating the sequence.
func (m *MemStateSeq) ComputeState(inc, dec uint64) (transient, stable int64) {
	up := m.latest + int64(inc)
	down := up - int64(dec)
	return up, down
}

// Append records one step: allocate inc bytes, then free dec bytes,
// returning the resulting (transient, stable) pair.
func (m *MemStateSeq) Append(inc, dec uint64) (transient, stable int64) {
	up, down := m.ComputeState(inc, dec)
	m.transients = append(m.transients, up)
	m.stables = append(m.stables, down)
	m.latest = down
	return up, down
}

// Transients returns the transient state at every step so far.
func (m *MemStateSeq) Transients() []int64 { return m.transients }

// Stables returns the stable state at every step so far.
func (m *MemStateSeq) Stables() []int64 { return m.stables }
