// Package history provides support for the hash chain that links every answer
// submitted for a question. The engine only keeps the head of the chain. The
// full list of records lives with whoever wants to claim and is verified by
// re-deriving the head.
package history

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents the head of a chain that has no records yet.
var ZeroHash common.Hash

// =============================================================================

// Record represents one accepted submission to a question's chain.
type Record struct {
	QuestionID common.Hash    `json:"question_id"`
	PrevHash   common.Hash    `json:"prev_hash"`  // Head of the chain before this record.
	Addr       common.Address `json:"addr"`       // Account that submitted or is paid for the record.
	Bond       uint64         `json:"bond"`       // Stake attached to the record.
	Answer     common.Hash    `json:"answer"`     // Answer, or the commitment id for a commitment.
	Commitment bool           `json:"commitment"` // Answer holds a commitment id.
	TimeStamp  uint64         `json:"timestamp"`  // Time the record was accepted.
}

// Hash returns the head of the chain once this record is appended.
func (r Record) Hash() common.Hash {
	return Hash(r.PrevHash, r.Addr, r.Bond, r.Answer)
}

// Hash links a record to the previous head of the chain.
func Hash(prev common.Hash, addr common.Address, bond uint64, answer common.Hash) common.Hash {
	return crypto.Keccak256Hash(prev.Bytes(), addr.Bytes(), Uint256(bond), answer.Bytes())
}

// =============================================================================

// ContentHash returns the hash of the question text.
func ContentHash(content string) common.Hash {
	return crypto.Keccak256Hash([]byte(content))
}

// QuestionID derives the id of a question from its content, the account that
// asked it and a nonce chosen by that account.
func QuestionID(contentHash common.Hash, creator common.Address, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(contentHash.Bytes(), creator.Bytes(), Uint256(nonce))
}

// CommitmentHash hides an answer behind a nonce.
func CommitmentHash(answer common.Hash, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(answer.Bytes(), Uint256(nonce))
}

// CommitmentID binds a commitment hash to a question and a bond. This is the
// value that is written into the chain in place of the answer.
func CommitmentID(questionID common.Hash, commitmentHash common.Hash, bond uint64) common.Hash {
	return crypto.Keccak256Hash(questionID.Bytes(), commitmentHash.Bytes(), Uint256(bond))
}

// AnswerFromUint64 encodes a numeric answer as a 32 byte answer.
func AnswerFromUint64(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}

// Uint256 encodes the value as a 32 byte big endian integer.
func Uint256(v uint64) []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint64(b[24:], v)
	return b
}
