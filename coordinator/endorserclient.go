package coordinator

import (
	"fmt"

	"github.com/forestrie/nimble/rpcwire"
	"github.com/forestrie/nimble/transport"
)

// EndorserClient is a cheap, cloneable stub identifying one endorser by
// its listen address. It carries no open connection — every call dials
// fresh (spec.md §9: stubs "share an underlying multiplexed channel";
// here that channel is simply "a TCP address", since each RPC dials and
// closes its own connection) — so cloning one per fan-out job, as
// spec.md §9 requires, is a plain value copy.
type EndorserClient struct {
	Addr string
}

// Call sends one rpcwire.Envelope to the endorser and returns its Reply.
func (c EndorserClient) Call(verb rpcwire.Verb, request any) (rpcwire.Reply, error) {
	payload, err := rpcwire.Marshal(request)
	if err != nil {
		return rpcwire.Reply{}, err
	}

	conn, err := transport.Dial(c.Addr)
	if err != nil {
		return rpcwire.Reply{}, fmt.Errorf("endorser client: dialing %s: %w", c.Addr, err)
	}
	defer conn.Close()

	envBytes, err := rpcwire.Marshal(rpcwire.Envelope{Verb: verb, Payload: payload})
	if err != nil {
		return rpcwire.Reply{}, err
	}
	if err := transport.WriteFrame(conn, envBytes); err != nil {
		return rpcwire.Reply{}, fmt.Errorf("endorser client: writing request to %s: %w", c.Addr, err)
	}

	replyBytes, err := transport.ReadFrame(conn)
	if err != nil {
		return rpcwire.Reply{}, fmt.Errorf("endorser client: reading reply from %s: %w", c.Addr, err)
	}

	var reply rpcwire.Reply
	if err := rpcwire.Unmarshal(replyBytes, &reply); err != nil {
		return rpcwire.Reply{}, fmt.Errorf("endorser client: decoding reply from %s: %w", c.Addr, err)
	}
	return reply, nil
}
