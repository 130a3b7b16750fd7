package history_test

import (
	"testing"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestCommitmentHash(t *testing.T) {
	h := history.CommitmentHash(history.AnswerFromUint64(1003), 94989)
	require.Equal(t, "0x23e796d2bf4f5f890b1242934a636f4802aadd480b6f83c754d2bd5920f78845", h.Hex())
}

func TestUint256(t *testing.T) {
	b := history.Uint256(0x0102)
	require.Len(t, b, 32)
	require.Equal(t, byte(0x01), b[30])
	require.Equal(t, byte(0x02), b[31])
	require.Equal(t, history.AnswerFromUint64(0x0102).Bytes(), b)
}

func TestChainReplay(t *testing.T) {
	qid := history.QuestionID(history.ContentHash("my question"), common.HexToAddress("0x01"), 0)

	var chain history.Chain
	require.Equal(t, history.ZeroHash, chain.Head())

	bonds := []uint64{2, 4, 8}
	for i, bond := range bonds {
		chain.Append(history.Record{
			QuestionID: qid,
			PrevHash:   chain.Head(),
			Addr:       common.HexToAddress("0x03"),
			Bond:       bond,
			Answer:     history.AnswerFromUint64(uint64(1000 + i)),
		})
	}

	rp := chain.Replay()
	require.True(t, rp.Even())
	require.Equal(t, 3, rp.Len())

	// Newest first.
	require.Equal(t, uint64(8), rp.Bonds[0])
	require.Equal(t, uint64(2), rp.Bonds[2])
	require.Equal(t, history.ZeroHash, rp.HistoryHashes[2])

	require.NoError(t, history.Verify(chain.Head(), rp))
}

func TestVerifyRejectsTampering(t *testing.T) {
	var chain history.Chain
	for _, bond := range []uint64{1, 2, 4} {
		chain.Append(history.Record{
			PrevHash: chain.Head(),
			Addr:     common.HexToAddress("0x04"),
			Bond:     bond,
			Answer:   history.AnswerFromUint64(7),
		})
	}
	head := chain.Head()

	rp := chain.Replay()
	rp.Bonds[1] = 3
	require.ErrorIs(t, history.Verify(head, rp), history.ErrBrokenChain)

	rp = chain.Replay()
	require.ErrorIs(t, history.Verify(head, rp.Slice(0, 2)), history.ErrBrokenChain)

	rp = chain.Replay()
	require.NoError(t, history.Verify(rp.HistoryHashes[0], rp.Slice(1, 3)))
}
