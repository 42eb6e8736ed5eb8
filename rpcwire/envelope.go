// Package rpcwire defines the CBOR-encoded request/response schema the
// endorser server and the coordinator's endorser client exchange as
// length-prefixed frames of package transport over a TCP net.Conn
// (spec.md §6). CBOR framing is a wire concern only; it
// never touches the bytes that are actually signed by an endorser (see
// signature package and DESIGN.md).
package rpcwire

// Verb names one of the six endorser operations plus GetPublicKey
// (spec.md §6).
type Verb string

const (
	VerbGetPublicKey         Verb = "GetPublicKey"
	VerbNewLedger            Verb = "NewLedger"
	VerbAppend               Verb = "Append"
	VerbReadLatest           Verb = "ReadLatest"
	VerbInitializeState      Verb = "InitializeState"
	VerbAppendViewLedger     Verb = "AppendViewLedger"
	VerbReadLatestViewLedger Verb = "ReadLatestViewLedger"
)

// Envelope is the outermost frame written by transport.WriteFrame: a verb
// name and the CBOR-encoded request or response body for that verb.
type Envelope struct {
	Verb    Verb
	Payload []byte
}

// StatusOK is the reply status for a successful call; any other value is
// the string form of an endorser.Kind or coordinator.Kind (spec.md §7).
const StatusOK = "OK"

// Reply wraps every response payload with a status string, so a client can
// distinguish a successful payload from a Kind-tagged failure without a
// second round trip.
type Reply struct {
	Status  string
	Payload []byte
}

// GetPublicKeyRequest carries no fields (spec.md §6).
type GetPublicKeyRequest struct{}

// GetPublicKeyResponse carries the raw public key and the endorser's
// self-signature over it.
type GetPublicKeyResponse struct {
	PublicKey     []byte
	SelfSignature []byte
}

// NewLedgerRequest carries the 32-byte handle to create.
type NewLedgerRequest struct {
	Handle []byte
}

// NewLedgerResponse carries the signature over the genesis message.
type NewLedgerResponse struct {
	Signature []byte
}

// AppendRequest carries the handle, the new block's hash, and the
// conditional precondition tail.
type AppendRequest struct {
	Handle          []byte
	BlockHash       []byte
	CondUpdatedTail []byte
}

// AppendResponse carries the new tail, new height, and the signature over
// them (spec.md §6: "signature, (height, tail via derivation)").
type AppendResponse struct {
	Tail      []byte
	Height    uint64
	Signature []byte
}

// ReadLatestRequest carries the handle and a 16-byte freshness nonce.
type ReadLatestRequest struct {
	Handle []byte
	Nonce  []byte
}

// ReadLatestResponse carries the signed tail/height and echoes the nonce.
type ReadLatestResponse struct {
	Tail      []byte
	Height    uint64
	Nonce     []byte
	Signature []byte
}

// TailMapEntry is one (handle, tail, height) triple of an
// InitializeStateRequest's ledger tail map (spec.md §6).
type TailMapEntry struct {
	Handle []byte
	Tail   []byte
	Height uint64
}

// InitializeStateRequest seeds a fresh endorser with the quorum's known
// state and performs the first view-ledger append.
type InitializeStateRequest struct {
	LedgerTailMap   []TailMapEntry
	ViewTail        []byte
	ViewHeight      uint64
	BlockHash       []byte
	CondUpdatedTail []byte
}

// InitializeStateResponse carries the signature over the resulting
// view-ledger append message.
type InitializeStateResponse struct {
	Signature []byte
}

// AppendViewLedgerRequest carries the new view-ledger block hash and its
// conditional precondition tail.
type AppendViewLedgerRequest struct {
	BlockHash       []byte
	CondUpdatedTail []byte
}

// AppendViewLedgerResponse carries the signature over the new view-ledger
// tail message.
type AppendViewLedgerResponse struct {
	Signature []byte
}

// ReadLatestViewLedgerRequest carries the freshness nonce.
type ReadLatestViewLedgerRequest struct {
	Nonce []byte
}

// ReadLatestViewLedgerResponse carries the signed view tail and echoes
// the nonce.
type ReadLatestViewLedgerResponse struct {
	Tail      []byte
	Height    uint64
	Nonce     []byte
	Signature []byte
}
