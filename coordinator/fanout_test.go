package coordinator_test

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/nimble/coordinator"
	"github.com/forestrie/nimble/digest"
	"github.com/forestrie/nimble/endorser"
	"github.com/forestrie/nimble/ledger"
	"github.com/forestrie/nimble/signature"
	"github.com/forestrie/nimble/transport"
)

func init() {
	logger.New("NOOP")
}

// testEndorser runs a real endorser.Server on an ephemeral loopback port
// so fan-out tests exercise the actual wire protocol, not a mock.
type testEndorser struct {
	store *endorser.Store
	addr  string
}

func startTestEndorser(t *testing.T) *testEndorser {
	t.Helper()

	log := logger.Sugar.WithServiceName("endorser-test")
	store, err := endorser.NewStore(log)
	require.NoError(t, err)

	service := endorser.NewService(log, store)
	server := endorser.NewServer(log, service)

	ln, err := transport.Listen("127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = server.Serve(ln) }()

	return &testEndorser{store: store, addr: ln.Addr().String()}
}

func newTestCoordinator(t *testing.T, endorsers []*testEndorser) *coordinator.Coordinator {
	t.Helper()
	log := logger.Sugar.WithServiceName("coordinator-test")
	conns := coordinator.NewConnectionStore(log)
	for _, e := range endorsers {
		_, err := conns.ConnectEndorser(e.addr)
		require.NoError(t, err)
	}
	return coordinator.NewCoordinator(log, conns)
}

func TestCreateLedgerFansOutToAllEndorsers(t *testing.T) {
	endorsers := []*testEndorser{startTestEndorser(t), startTestEndorser(t), startTestEndorser(t)}
	coord := newTestCoordinator(t, endorsers)

	var h ledger.Handle
	h[0] = 0x7a

	receipt, err := coord.CreateLedger(h)
	require.NoError(t, err)
	require.Equal(t, 3, receipt.Len())

	tail0 := digest.Sum(digest.Zero.Bytes(), h.Bytes(), digest.BigEndianHeight(0))
	msg := append(append([]byte{}, tail0.Bytes()...), h.Bytes()...)
	msg = append(msg, digest.BigEndianHeight(0)...)

	for _, entry := range receipt.Entries {
		require.True(t, entry.PublicKey.Verify(msg, entry.Signature))
	}
}

// TestFanOutAllOrNothing covers spec.md §8 scenario 6: three endorsers,
// one deliberately returns InvalidTailHeight; the Coordinator's
// append_ledger fails with FailedToAppendLedger even though the other two
// endorsers' states have already advanced.
func TestFanOutAllOrNothing(t *testing.T) {
	endorsers := []*testEndorser{startTestEndorser(t), startTestEndorser(t), startTestEndorser(t)}

	var h ledger.Handle
	h[0] = 0x5c
	blockHash := make([]byte, digest.Size)
	blockHash[0] = 0x11

	for _, e := range endorsers {
		_, err := e.store.NewLedger(h)
		require.NoError(t, err)
	}

	// Advance only the third endorser out from under the coordinator, so
	// its current tail no longer matches the cond_tail the other two
	// still expect.
	_, _, _, err := endorsers[2].store.Append(h, blockHash, digest.Zero)
	require.NoError(t, err)

	coord := newTestCoordinator(t, endorsers)

	tail0 := digest.Sum(digest.Zero.Bytes(), h.Bytes(), digest.BigEndianHeight(0))

	_, err = coord.AppendLedger(h, blockHash, tail0)
	require.ErrorIs(t, err, coordinator.ErrFailedToAppendLedger)

	_, height0, _, err := endorsers[0].store.ReadLatest(h, make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, uint64(1), height0, "endorser 0 advanced despite the aggregate failure")

	_, height1, _, err := endorsers[1].store.ReadLatest(h, make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, uint64(1), height1, "endorser 1 advanced despite the aggregate failure")
}

func TestInitializeStateRejectsUnknownEndorserKey(t *testing.T) {
	endorsers := []*testEndorser{startTestEndorser(t)}
	coord := newTestCoordinator(t, endorsers)

	stranger := startTestEndorser(t)
	unknownPK, _ := stranger.store.GetPublicKey()

	_, err := coord.InitializeState([]signature.PublicKey{unknownPK}, ledger.TailMap{}, digest.Zero, 0, nil, digest.Zero)
	require.ErrorIs(t, err, coordinator.ErrInvalidEndorserPublicKey)
}

func TestInitializeStateAndAppendViewLedgerRoundTrip(t *testing.T) {
	endorsers := []*testEndorser{startTestEndorser(t), startTestEndorser(t)}
	coord := newTestCoordinator(t, endorsers)

	var keys []signature.PublicKey
	for _, e := range endorsers {
		pk, _ := e.store.GetPublicKey()
		keys = append(keys, pk)
	}

	receipt, err := coord.InitializeState(keys, ledger.TailMap{}, digest.Zero, 0, []byte("genesis-view-block"), digest.Zero)
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Len())

	receipt, err = coord.AppendViewLedger(keys, []byte("reconfig-block"), digest.Zero)
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Len())
}
