package ledger

import "github.com/forestrie/nimble/digest"

// TailHeight is a (tail, height) pair for one handle, as carried in a
// LedgerTailMap (spec.md §3).
type TailHeight struct {
	Tail   digest.Digest
	Height uint64
}

// TailMap is a snapshot {handle -> (tail, height)} used at membership join
// to seed a newly-added endorser with the state known to the quorum
// (spec.md §3 "LedgerTailMap").
type TailMap map[Handle]TailHeight

// Clone returns a shallow copy safe to hand to InitializeState without
// aliasing the caller's map.
func (m TailMap) Clone() TailMap {
	out := make(TailMap, len(m))
	for h, th := range m {
		out[h] = th
	}
	return out
}
