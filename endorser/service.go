package endorser

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/digest"
	"github.com/forestrie/nimble/ledger"
	"github.com/forestrie/nimble/rpcwire"
)

// Service is a stateless RPC-framing layer over a Store: it decodes
// request bodies, calls into Store, and re-encodes responses, mapping
// Store errors to rpcwire status strings (spec.md §4.2). It holds no lock
// of its own; every mutation and read is serialized by the Store itself.
type Service struct {
	log   logger.Logger
	store *Store
}

// NewService wraps store in a Service.
func NewService(log logger.Logger, store *Store) *Service {
	return &Service{log: log, store: store}
}

// Dispatch decodes the Envelope payload for verb, calls the matching
// Store method, and returns an encoded Reply ready to write back to the
// wire. Dispatch itself never returns an error for a well-formed but
// semantically rejected request: the rejection is carried in the Reply's
// Status field so the coordinator's transport client can map it to a
// Kind without a second round trip.
func (s *Service) Dispatch(env rpcwire.Envelope) (rpcwire.Reply, error) {
	switch env.Verb {
	case rpcwire.VerbGetPublicKey:
		return s.getPublicKey(env.Payload)
	case rpcwire.VerbNewLedger:
		return s.newLedger(env.Payload)
	case rpcwire.VerbAppend:
		return s.append(env.Payload)
	case rpcwire.VerbReadLatest:
		return s.readLatest(env.Payload)
	case rpcwire.VerbInitializeState:
		return s.initializeState(env.Payload)
	case rpcwire.VerbAppendViewLedger:
		return s.appendViewLedger(env.Payload)
	case rpcwire.VerbReadLatestViewLedger:
		return s.readLatestViewLedger(env.Payload)
	default:
		return rpcwire.Reply{}, fmt.Errorf("endorser: unknown verb %q", env.Verb)
	}
}

func okReply(v any) (rpcwire.Reply, error) {
	payload, err := rpcwire.Marshal(v)
	if err != nil {
		return rpcwire.Reply{}, err
	}
	return rpcwire.Reply{Status: rpcwire.StatusOK, Payload: payload}, nil
}

func errReply(err error) rpcwire.Reply {
	if se, ok := err.(*Error); ok {
		return rpcwire.Reply{Status: string(se.Kind)}
	}
	return rpcwire.Reply{Status: err.Error()}
}

func (s *Service) getPublicKey(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.GetPublicKeyRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}
	pk, selfSig := s.store.GetPublicKey()
	return okReply(rpcwire.GetPublicKeyResponse{PublicKey: pk.Bytes(), SelfSignature: selfSig})
}

func (s *Service) newLedger(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.NewLedgerRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}
	h, err := ledger.HandleFromBytes(req.Handle)
	if err != nil {
		return rpcwire.Reply{}, err
	}
	sig, err := s.store.NewLedger(h)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.NewLedgerResponse{Signature: sig})
}

func (s *Service) append(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.AppendRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}
	h, err := ledger.HandleFromBytes(req.Handle)
	if err != nil {
		return rpcwire.Reply{}, err
	}
	condTail, err := condTailFromBytes(req.CondUpdatedTail)
	if err != nil {
		return rpcwire.Reply{}, err
	}

	tailNew, heightNew, sig, err := s.store.Append(h, req.BlockHash, condTail)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.AppendResponse{Tail: tailNew.Bytes(), Height: heightNew, Signature: sig})
}

func (s *Service) readLatest(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.ReadLatestRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}
	h, err := ledger.HandleFromBytes(req.Handle)
	if err != nil {
		return rpcwire.Reply{}, err
	}

	tail, height, sig, err := s.store.ReadLatest(h, req.Nonce)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.ReadLatestResponse{Tail: tail.Bytes(), Height: height, Nonce: req.Nonce, Signature: sig})
}

func (s *Service) initializeState(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.InitializeStateRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}

	tailMap := make(ledger.TailMap, len(req.LedgerTailMap))
	for _, e := range req.LedgerTailMap {
		h, err := ledger.HandleFromBytes(e.Handle)
		if err != nil {
			return rpcwire.Reply{}, err
		}
		tail, ok := digest.FromBytes(e.Tail)
		if !ok {
			return rpcwire.Reply{}, fmt.Errorf("endorser: invalid tail in ledger tail map entry for handle %s", h)
		}
		tailMap[h] = ledger.TailHeight{Tail: tail, Height: e.Height}
	}

	viewTail, ok := digest.FromBytes(req.ViewTail)
	if !ok {
		return rpcwire.Reply{}, fmt.Errorf("endorser: invalid view tail")
	}
	condTail, err := condTailFromBytes(req.CondUpdatedTail)
	if err != nil {
		return rpcwire.Reply{}, err
	}

	sig, err := s.store.InitializeState(tailMap, viewTail, req.ViewHeight, req.BlockHash, condTail)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.InitializeStateResponse{Signature: sig})
}

func (s *Service) appendViewLedger(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.AppendViewLedgerRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}
	condTail, err := condTailFromBytes(req.CondUpdatedTail)
	if err != nil {
		return rpcwire.Reply{}, err
	}

	sig, err := s.store.AppendViewLedger(req.BlockHash, condTail)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.AppendViewLedgerResponse{Signature: sig})
}

func (s *Service) readLatestViewLedger(payload []byte) (rpcwire.Reply, error) {
	var req rpcwire.ReadLatestViewLedgerRequest
	if err := rpcwire.Unmarshal(payload, &req); err != nil {
		return rpcwire.Reply{}, err
	}

	tail, height, sig, err := s.store.ReadLatestViewLedger(req.Nonce)
	if err != nil {
		return errReply(err), nil
	}
	return okReply(rpcwire.ReadLatestViewLedgerResponse{Tail: tail.Bytes(), Height: height, Nonce: req.Nonce, Signature: sig})
}

// condTailFromBytes treats an empty slice as the zero digest, the
// unconditional-append marker (spec.md §4.1), rather than an encoding
// error.
func condTailFromBytes(raw []byte) (digest.Digest, error) {
	if len(raw) == 0 {
		return digest.Zero, nil
	}
	d, ok := digest.FromBytes(raw)
	if !ok {
		return digest.Digest{}, fmt.Errorf("endorser: invalid conditional tail")
	}
	return d, nil
}
