package indexer_test

import (
	"testing"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer/memory"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	k3 = common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	k4 = common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
)

func records(questionID common.Hash) []history.Record {
	var chain history.Chain
	for i, bond := range []uint64{2, 4, 8} {
		addr := k3
		if i%2 == 1 {
			addr = k4
		}
		chain.Append(history.Record{
			QuestionID: questionID,
			PrevHash:   chain.Head(),
			Addr:       addr,
			Bond:       bond,
			Answer:     history.AnswerFromUint64(uint64(1000 + i)),
			TimeStamp:  1_700_000_000 + uint64(i),
		})
	}
	return chain.Records()
}

func testIndexer(t *testing.T, storage indexer.Storage) {
	idx, err := indexer.New(storage, nil)
	require.NoError(t, err)

	q1 := history.QuestionID(history.ContentHash("first"), k3, 0)
	q2 := history.QuestionID(history.ContentHash("second"), k3, 0)

	r1 := records(q1)
	r2 := records(q2)
	for i := range r1 {
		require.NoError(t, idx.Record(r1[i]))
		require.NoError(t, idx.Record(r2[i]))
	}

	require.ErrorIs(t, idx.Record(r1[1]), indexer.ErrOutOfOrder)
	require.Equal(t, r1[2].Hash(), idx.Head(q1))
	require.Len(t, idx.Questions(), 2)

	got, err := idx.Records(q1)
	require.NoError(t, err)
	require.Equal(t, r1, got)

	rp, err := idx.Replay(q2)
	require.NoError(t, err)
	require.Equal(t, 3, rp.Len())
	require.NoError(t, history.Verify(idx.Head(q2), rp))

	rp, err = idx.Replay(history.ZeroHash)
	require.NoError(t, err)
	require.Equal(t, 0, rp.Len())
}

func TestMemory(t *testing.T) {
	testIndexer(t, memory.New())
}

func TestPebble(t *testing.T) {
	path := t.TempDir()

	store, err := pebble.Open(path)
	require.NoError(t, err)
	testIndexer(t, store)
	require.NoError(t, store.Close())

	// The heads survive a restart.
	store, err = pebble.Open(path)
	require.NoError(t, err)
	defer store.Close()

	idx, err := indexer.New(store, nil)
	require.NoError(t, err)
	require.Len(t, idx.Questions(), 2)

	q1 := history.QuestionID(history.ContentHash("first"), k3, 0)
	r1 := records(q1)
	require.Equal(t, r1[2].Hash(), idx.Head(q1))

	next := history.Record{
		QuestionID: q1,
		PrevHash:   idx.Head(q1),
		Addr:       k3,
		Bond:       16,
		Answer:     history.AnswerFromUint64(1000),
	}
	require.NoError(t, idx.Record(next))

	got, err := idx.Records(q1)
	require.NoError(t, err)
	require.Len(t, got, 4)
}

func TestPebbleClosed(t *testing.T) {
	store, err := pebble.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Records(history.ZeroHash)
	require.ErrorIs(t, err, pebble.ErrClosed)
}
