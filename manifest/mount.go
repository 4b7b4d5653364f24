package manifest

import "sync"

// MountState is the explicit state machine spec §4.3 draws out: every
// mounted store is in exactly one of these states at any instant, and
// ReadOnly/Failed are distinguishable terminal states (a Failed store
// cannot query at all; a ReadOnly store can query but not mutate).
//
// Grounded on the implicit read→verify→cache progression in
// massifs/massifcontextverified.go / massifcontext2verified.go, made
// explicit and typed because spec §4.3 requires the terminal states to be
// inspectable, not just an absence of error.
type MountState int

const (
	Unmounted MountState = iota
	L0Verified
	L1Verified
	L1Dirty
	ReadOnly
	Failed
)

func (s MountState) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case L0Verified:
		return "l0_verified"
	case L1Verified:
		return "l1_verified"
	case L1Dirty:
		return "l1_dirty"
	case ReadOnly:
		return "read_only"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanQuery reports whether a store in this state may serve queries.
func (s MountState) CanQuery() bool {
	return s == L0Verified || s == L1Verified || s == L1Dirty || s == ReadOnly
}

// CanMutate reports whether a store in this state may accept
// AppendSegment/WriteManifest/Compact.
func (s MountState) CanMutate() bool {
	return s == L1Verified || s == L1Dirty
}

// MountTracker guards the MountState transitions with a mutex so concurrent
// readers can observe it (spec §5: the writer lock and the mount state
// transition together) without taking the store's full writer lock just to
// check whether queries are still allowed.
type MountTracker struct {
	mu    sync.RWMutex
	state MountState
}

func NewMountTracker() *MountTracker {
	return &MountTracker{state: Unmounted}
}

func (t *MountTracker) State() MountState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Transition moves the tracker to next. Callers are responsible for only
// calling this with state-diagram-legal transitions (spec §4.3's diagram);
// this type does not itself validate the edge, since the legal edges
// depend on which operation is calling it (open vs touch vs append).
func (t *MountTracker) Transition(next MountState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = next
}

// DegradeToReadOnly is the WarnOnly-policy transition: a hash mismatch on
// lazy touch does not fail the whole store, it demotes future mutation
// attempts while leaving queries possible (spec §4.2 policy table).
func (t *MountTracker) DegradeToReadOnly() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Failed {
		t.state = ReadOnly
	}
}

// Fail is the Strict/Paranoid transition: a hash mismatch or signature
// failure means the store can serve no further requests at all.
func (t *MountTracker) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Failed
}
