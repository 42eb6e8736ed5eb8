// Package endorser implements the per-process signing witness: an
// in-memory, append-only map of ledger handles to chained tail digests,
// plus the distinguished view ledger and the lock flag that freezes
// ordinary appends during a membership change (spec.md §3, §4.1).
//
// The handle map follows the same RWMutex-guarded map discipline the wider
// codebase uses for in-memory indexes (grounded on agent/registry.go in the
// sibling gtos node); the conditional-append precondition follows the
// teacher's ETag discipline for blob commits (massifs/massifcommitter.go):
// a present cond_tail must match exactly, and the zero digest is the one
// documented "skip the check" value (spec.md §4.1, §9).
package endorser

import (
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/digest"
	"github.com/forestrie/nimble/ledger"
	"github.com/forestrie/nimble/signature"
)

// ledgerState is the mutable (tail, height) pair held per handle.
type ledgerState struct {
	tail   digest.Digest
	height uint64
}

// Store is the exclusive owner of an endorser's signing key and all
// per-handle state. One Store is created per endorser process and lives
// for the process lifetime (spec.md §3: "The signing key is created once
// at endorser startup").
type Store struct {
	log logger.Logger

	keys signature.KeyPair

	mu          sync.RWMutex
	ledgers     map[ledger.Handle]*ledgerState
	viewLedger  *ledgerState
	initialized bool
	locked      bool
}

// NewStore creates a Store with a freshly generated signing keypair.
func NewStore(log logger.Logger) (*Store, error) {
	kp, err := signature.Generate()
	if err != nil {
		return nil, err
	}
	return &Store{
		log:     log,
		keys:    kp,
		ledgers: make(map[ledger.Handle]*ledgerState),
	}, nil
}

// GetPublicKey returns the store's public key and a self-signature over
// it, binding the key to this endorser without a PKI (spec.md §4.1).
func (s *Store) GetPublicKey() (signature.PublicKey, []byte) {
	return s.keys.PublicKey(), s.keys.SelfSign()
}

// genesisTail computes H(0^32 ‖ id ‖ 0^64), the tail of a freshly created
// ledger (spec.md §3).
func genesisTail(id []byte) digest.Digest {
	return digest.Sum(digest.Zero.Bytes(), id, digest.BigEndianHeight(0))
}

// NewLedger creates a fresh ledger at handle h, legal only if h is
// currently absent (spec.md §4.1).
func (s *Store) NewLedger(h ledger.Handle) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return nil, ErrIsLocked
	}
	if _, exists := s.ledgers[h]; exists {
		return nil, ErrLedgerExists
	}

	tail0 := genesisTail(h.Bytes())
	s.ledgers[h] = &ledgerState{tail: tail0, height: 0}

	msg := signedAppendMessage(tail0, h.Bytes(), 0)
	return s.keys.Sign(msg), nil
}

// signedAppendMessage builds tail_new ‖ id ‖ height_new_be64, the layout
// shared by new_ledger and append (spec.md §6).
func signedAppendMessage(tail digest.Digest, id []byte, height uint64) []byte {
	msg := make([]byte, 0, digest.Size+len(id)+8)
	msg = append(msg, tail.Bytes()...)
	msg = append(msg, id...)
	msg = append(msg, digest.BigEndianHeight(height)...)
	return msg
}

// signedReadMessage builds tail ‖ height_be64 ‖ nonce, the read_latest
// layout (spec.md §6).
func signedReadMessage(tail digest.Digest, height uint64, nonce []byte) []byte {
	msg := make([]byte, 0, digest.Size+8+len(nonce))
	msg = append(msg, tail.Bytes()...)
	msg = append(msg, digest.BigEndianHeight(height)...)
	msg = append(msg, nonce...)
	return msg
}

// appendState applies one conditional append to st, returning the new
// tail and height, or the precondition error. The zero digest is the
// documented unconditional marker (spec.md §4.1, §9); any other mismatch
// is InvalidTailHeight, including the out-of-order case where cond_tail
// names a digest the ledger has already moved past.
func appendState(st *ledgerState, id []byte, blockHash []byte, condTail digest.Digest) (digest.Digest, uint64, error) {
	if !condTail.IsZero() && !condTail.Equal(st.tail) {
		return digest.Digest{}, 0, ErrInvalidTailHeight
	}
	if st.height == ^uint64(0) {
		return digest.Digest{}, 0, ErrLedgerHeightOverflow
	}

	heightNew := st.height + 1
	tailNew := digest.ChainNext(st.tail, blockHash, heightNew)

	st.tail = tailNew
	st.height = heightNew

	return tailNew, heightNew, nil
}

// Append performs a conditional append to handle h (spec.md §4.1).
func (s *Store) Append(h ledger.Handle, blockHash []byte, condTail digest.Digest) (digest.Digest, uint64, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return digest.Digest{}, 0, nil, ErrIsLocked
	}
	st, ok := s.ledgers[h]
	if !ok {
		return digest.Digest{}, 0, nil, ErrInvalidLedgerName
	}

	tailNew, heightNew, err := appendState(st, h.Bytes(), blockHash, condTail)
	if err != nil {
		return digest.Digest{}, 0, nil, err
	}

	sig := s.keys.Sign(signedAppendMessage(tailNew, h.Bytes(), heightNew))
	return tailNew, heightNew, sig, nil
}

// ReadLatest signs the current tail of handle h together with the
// caller-supplied freshness nonce (spec.md §4.1).
func (s *Store) ReadLatest(h ledger.Handle, nonce []byte) (digest.Digest, uint64, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.ledgers[h]
	if !ok {
		return digest.Digest{}, 0, nil, ErrInvalidLedgerName
	}

	sig := s.keys.Sign(signedReadMessage(st.tail, st.height, nonce))
	return st.tail, st.height, sig, nil
}

// InitializeState installs the ledger tail map and the view ledger state
// verbatim, then performs a view-ledger append of blockHash under the
// condTail precondition. condTail must equal viewTail exactly: unlike
// Append and AppendViewLedger, the zero digest is not an unconditional
// marker here. Legal only when the store is uninitialized and unlocked
// (spec.md §4.1).
func (s *Store) InitializeState(tailMap ledger.TailMap, viewTail digest.Digest, viewHeight uint64, blockHash []byte, condTail digest.Digest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return nil, ErrIsLocked
	}
	if s.initialized {
		return nil, ErrAlreadyInitialized
	}
	if !condTail.Equal(viewTail) {
		return nil, ErrInvalidTailHeight
	}

	for h, th := range tailMap {
		s.ledgers[h] = &ledgerState{tail: th.Tail, height: th.Height}
	}
	s.viewLedger = &ledgerState{tail: viewTail, height: viewHeight}

	viewID := viewLedgerID()
	tailNew, heightNew, err := appendState(s.viewLedger, viewID, blockHash, condTail)
	if err != nil {
		return nil, err
	}

	s.initialized = true

	return s.keys.Sign(signedAppendMessage(tailNew, viewID, heightNew)), nil
}

// viewLedgerID is the fixed identifier substituted for handle in the
// view-ledger signed-message layouts (spec.md §6: "the distinguished view
// identifier in place of handle"). All zero bytes, since the view ledger
// has no coordinator-assigned handle.
func viewLedgerID() []byte {
	return make([]byte, ledger.HandleSize)
}

// AppendViewLedger appends to the view ledger and engages the lock flag
// for every ordinary ledger mutation until the next successful
// view-ledger append (spec.md §4.1: "The lock is released by the next
// successful view-ledger append issued by the Coordinator, or never if no
// such call arrives"). A successful append on an unlocked store engages
// the lock; a successful append on a locked store is that "next" append
// and releases it, so a Coordinator that wants to end a reconfiguration
// issues one more (possibly no-op) view-ledger append to hand the lock
// back (spec.md §9, open question: this implementation picks
// persist-until-released over release-on-return so the concrete
// locked-append scenario in spec.md §8 holds). A rejected append leaves
// the lock flag as it was.
func (s *Store) AppendViewLedger(blockHash []byte, condTail digest.Digest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	prevLocked := s.locked
	s.locked = false

	viewID := viewLedgerID()
	tailNew, heightNew, err := appendState(s.viewLedger, viewID, blockHash, condTail)
	if err != nil {
		s.locked = prevLocked
		return nil, err
	}

	s.locked = !prevLocked

	return s.keys.Sign(signedAppendMessage(tailNew, viewID, heightNew)), nil
}

// ReadLatestViewLedger signs the current view-ledger tail together with
// nonce (spec.md §4.1).
func (s *Store) ReadLatestViewLedger(nonce []byte) (digest.Digest, uint64, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return digest.Digest{}, 0, nil, ErrNotInitialized
	}

	sig := s.keys.Sign(signedReadMessage(s.viewLedger.tail, s.viewLedger.height, nonce))
	return s.viewLedger.tail, s.viewLedger.height, sig, nil
}
