package coordinator

import (
	"errors"
	"net"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/rpcwire"
	"github.com/forestrie/nimble/signature"
)

// ConnectionStore maps a known endorser's public key to the client stub
// used to reach it (spec.md §4.3). The RWMutex-guarded map discipline
// mirrors endorser.Store's handle map and the wider pack's
// tos-network-gtos/agent/registry.go index pattern.
type ConnectionStore struct {
	log logger.Logger

	mu    sync.RWMutex
	stubs map[string]EndorserClient
}

// NewConnectionStore creates an empty ConnectionStore.
func NewConnectionStore(log logger.Logger) *ConnectionStore {
	return &ConnectionStore{
		log:   log,
		stubs: make(map[string]EndorserClient),
	}
}

// ConnectEndorser dials hostname, retrieves and verifies the endorser's
// self-signed public key, and registers the stub only on success
// (spec.md §4.3).
func (cs *ConnectionStore) ConnectEndorser(hostname string) (signature.PublicKey, error) {
	client := EndorserClient{Addr: hostname}

	reply, err := client.Call(rpcwire.VerbGetPublicKey, rpcwire.GetPublicKeyRequest{})
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return signature.PublicKey{}, ErrCannotResolveHostName
		}
		return signature.PublicKey{}, ErrFailedToConnectToEndorser
	}
	if reply.Status != rpcwire.StatusOK {
		return signature.PublicKey{}, ErrUnableToRetrievePublicKey
	}

	var resp rpcwire.GetPublicKeyResponse
	if err := rpcwire.Unmarshal(reply.Payload, &resp); err != nil {
		return signature.PublicKey{}, ErrUnableToRetrievePublicKey
	}

	pk, err := signature.PublicKeyFromBytes(resp.PublicKey)
	if err != nil {
		return signature.PublicKey{}, ErrUnableToRetrievePublicKey
	}
	if !pk.Verify(pk.Bytes(), resp.SelfSignature) {
		return signature.PublicKey{}, ErrUnableToRetrievePublicKey
	}

	cs.mu.Lock()
	cs.stubs[pk.String()] = client
	cs.mu.Unlock()

	cs.log.Infof("connected endorser %x at %s", pk.Bytes(), hostname)

	return pk, nil
}

// GetAll returns a snapshot of every known (public key, stub) pair. The
// snapshot is cloned under the read lock and the lock is released before
// the caller issues any RPC against the returned stubs, per the
// discipline spec.md §9 requires.
func (cs *ConnectionStore) GetAll() map[string]EndorserClient {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make(map[string]EndorserClient, len(cs.stubs))
	for pk, stub := range cs.stubs {
		out[pk] = stub
	}
	return out
}

// Lookup returns the stub registered for pk, the raw bytes of a
// signature.PublicKey as used by Coordinator's explicit-list verbs.
func (cs *ConnectionStore) Lookup(pk string) (EndorserClient, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	stub, ok := cs.stubs[pk]
	return stub, ok
}
