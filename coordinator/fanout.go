// Package coordinator implements the untrusted aggregator: it fans each
// ledger operation out to a quorum of endorsers in parallel and collects
// their signatures into a Receipt (spec.md §4.4). The Coordinator never
// interprets signatures itself — only a client-side verifier decides what
// constitutes an acceptable quorum.
package coordinator

import (
	"github.com/datatrails/go-datatrails-common/logger"
	"golang.org/x/sync/errgroup"

	"github.com/forestrie/nimble/digest"
	"github.com/forestrie/nimble/ledger"
	"github.com/forestrie/nimble/rpcwire"
	"github.com/forestrie/nimble/signature"
)

// Coordinator fans out the six ledger verbs across every endorser the
// ConnectionStore knows about (or an explicit list, for the two verbs
// spec.md §4.4 calls out), using one goroutine per endorser and
// errgroup.Group.Wait to enforce all-or-nothing completion. This
// generalizes the teacher's single source→sink replication driver
// (massifs/massifreplicator.go) to genuine N-way concurrent broadcast;
// errgroup itself is adopted from the wider example pack rather than the
// teacher, which never fans one logical operation out to many peers.
type Coordinator struct {
	log   logger.Logger
	conns *ConnectionStore
}

// NewCoordinator creates a Coordinator over conns.
func NewCoordinator(log logger.Logger, conns *ConnectionStore) *Coordinator {
	return &Coordinator{log: log, conns: conns}
}

// signedResult is one endorser's contribution collected during fan-out.
type signedResult struct {
	pk  signature.PublicKey
	sig []byte
}

// fanOut issues call against every (pk, stub) pair in targets concurrently,
// decodes each reply with decode, and either returns every signature or
// the verb-specific aggregate error on the first failure (spec.md §4.4:
// "Await every task... If any task fails... the whole operation fails").
func fanOut(targets map[string]EndorserClient, aggregateErr *Error, call func(EndorserClient) (rpcwire.Reply, error), decode func(rpcwire.Reply) ([]byte, error)) ([]signedResult, error) {
	var g errgroup.Group

	results := make([]signedResult, len(targets))
	i := 0
	for pkStr, stub := range targets {
		idx := i
		i++
		pk, err := signature.PublicKeyFromBytes([]byte(pkStr))
		if err != nil {
			return nil, aggregateErr
		}
		stub := stub

		g.Go(func() error {
			reply, err := call(stub)
			if err != nil {
				return err
			}
			if reply.Status != rpcwire.StatusOK {
				return aggregateErr
			}
			sig, err := decode(reply)
			if err != nil {
				return err
			}
			results[idx] = signedResult{pk: pk, sig: sig}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, aggregateErr
	}
	return results, nil
}

func receiptFrom(results []signedResult) ledger.Receipt {
	entries := make([]ledger.ReceiptEntry, len(results))
	for i, r := range results {
		entries[i] = ledger.ReceiptEntry{PublicKey: r.pk, Signature: r.sig}
	}
	return ledger.NewReceipt(entries)
}

// CreateLedger fans new_ledger out to every known endorser.
func (c *Coordinator) CreateLedger(h ledger.Handle) (ledger.Receipt, error) {
	targets := c.conns.GetAll()
	req := rpcwire.NewLedgerRequest{Handle: h.Bytes()}

	results, err := fanOut(targets, ErrFailedToCreateLedger,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbNewLedger, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.NewLedgerResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}

// AppendLedger fans append out to every known endorser with the same
// conditional precondition.
func (c *Coordinator) AppendLedger(h ledger.Handle, blockHash []byte, condTail digest.Digest) (ledger.Receipt, error) {
	targets := c.conns.GetAll()
	req := rpcwire.AppendRequest{Handle: h.Bytes(), BlockHash: blockHash, CondUpdatedTail: condTail.Bytes()}

	results, err := fanOut(targets, ErrFailedToAppendLedger,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbAppend, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.AppendResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}

// ReadLedgerTail fans read_latest out to every known endorser.
func (c *Coordinator) ReadLedgerTail(h ledger.Handle, nonce ledger.Nonce) (ledger.Receipt, error) {
	targets := c.conns.GetAll()
	req := rpcwire.ReadLatestRequest{Handle: h.Bytes(), Nonce: nonce.Bytes()}

	results, err := fanOut(targets, ErrFailedToReadLedger,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbReadLatest, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.ReadLatestResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}

// targetsFor resolves an explicit caller-supplied endorser list against
// the ConnectionStore, failing fast with InvalidEndorserPublicKey if any
// key is unknown (spec.md §4.4: "any key not in the connection map
// causes immediate InvalidEndorserPublicKey with no requests issued").
func (c *Coordinator) targetsFor(keys []signature.PublicKey) (map[string]EndorserClient, error) {
	targets := make(map[string]EndorserClient, len(keys))
	for _, pk := range keys {
		stub, ok := c.conns.Lookup(pk.String())
		if !ok {
			return nil, ErrInvalidEndorserPublicKey
		}
		targets[pk.String()] = stub
	}
	return targets, nil
}

// InitializeState fans initialize_state out to an explicit list of
// endorsers (spec.md §4.4).
func (c *Coordinator) InitializeState(keys []signature.PublicKey, tailMap ledger.TailMap, viewTail digest.Digest, viewHeight uint64, blockHash []byte, condTail digest.Digest) (ledger.Receipt, error) {
	targets, err := c.targetsFor(keys)
	if err != nil {
		return ledger.Receipt{}, err
	}

	entries := make([]rpcwire.TailMapEntry, 0, len(tailMap))
	for h, th := range tailMap {
		entries = append(entries, rpcwire.TailMapEntry{Handle: h.Bytes(), Tail: th.Tail.Bytes(), Height: th.Height})
	}
	req := rpcwire.InitializeStateRequest{
		LedgerTailMap:   entries,
		ViewTail:        viewTail.Bytes(),
		ViewHeight:      viewHeight,
		BlockHash:       blockHash,
		CondUpdatedTail: condTail.Bytes(),
	}

	results, err := fanOut(targets, ErrFailedToInitializeEndorser,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbInitializeState, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.InitializeStateResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}

// AppendViewLedger fans append_view_ledger out to an explicit list of
// endorsers (spec.md §4.4).
func (c *Coordinator) AppendViewLedger(keys []signature.PublicKey, blockHash []byte, condTail digest.Digest) (ledger.Receipt, error) {
	targets, err := c.targetsFor(keys)
	if err != nil {
		return ledger.Receipt{}, err
	}
	req := rpcwire.AppendViewLedgerRequest{BlockHash: blockHash, CondUpdatedTail: condTail.Bytes()}

	results, err := fanOut(targets, ErrFailedToAppendViewLedger,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbAppendViewLedger, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.AppendViewLedgerResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}

// ReadViewLedgerTail fans read_latest_view_ledger out to every known
// endorser.
func (c *Coordinator) ReadViewLedgerTail(nonce ledger.Nonce) (ledger.Receipt, error) {
	targets := c.conns.GetAll()
	req := rpcwire.ReadLatestViewLedgerRequest{Nonce: nonce.Bytes()}

	results, err := fanOut(targets, ErrFailedToReadViewLedger,
		func(stub EndorserClient) (rpcwire.Reply, error) {
			return stub.Call(rpcwire.VerbReadLatestViewLedger, req)
		},
		func(reply rpcwire.Reply) ([]byte, error) {
			var resp rpcwire.ReadLatestViewLedgerResponse
			if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
				return nil, err
			}
			return resp.Signature, nil
		})
	if err != nil {
		return ledger.Receipt{}, err
	}
	return receiptFrom(results), nil
}
