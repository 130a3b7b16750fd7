// Package signature provides helper functions for signing and verifying the
// requests accounts make to the oracle.
package signature

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// oracleID is an arbitrary number added to the recovery id so signatures
// produced here are never mistaken for Ethereum ones, which use 27.
const oracleID = 29

// Set of error variables for checking signatures.
var (
	ErrInvalidRecoveryID = errors.New("invalid recovery id")
	ErrInvalidSignature  = errors.New("invalid signature values")
)

// =============================================================================

// Signed represents a request that has been signed by the account making it.
// Data holds the exact bytes that were signed.
type Signed struct {
	Data json.RawMessage `json:"data"`
	V    *big.Int        `json:"v"`
	R    *big.Int        `json:"r"`
	S    *big.Int        `json:"s"`
}

// NewSigned marshals the value and signs it with the private key.
func NewSigned(value any, privateKey *ecdsa.PrivateKey) (Signed, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Signed{}, fmt.Errorf("marshal: %w", err)
	}

	v, r, s, err := signBytes(data, privateKey)
	if err != nil {
		return Signed{}, err
	}

	return Signed{Data: data, V: v, R: r, S: s}, nil
}

// Signer validates the signature and returns the account that produced it.
func (sd Signed) Signer() (common.Address, error) {
	if sd.V == nil || sd.R == nil || sd.S == nil {
		return common.Address{}, ErrInvalidSignature
	}

	if err := VerifySignature(sd.V, sd.R, sd.S); err != nil {
		return common.Address{}, err
	}

	return fromBytes(sd.Data, sd.V, sd.R, sd.S)
}

// Decode unmarshals the signed data into the value.
func (sd Signed) Decode(value any) error {
	if err := json.Unmarshal(sd.Data, value); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// =============================================================================

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, nil, nil, err
	}

	return signBytes(data, privateKey)
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - oracleID
	if uintV != 0 && uintV != 1 {
		return ErrInvalidRecoveryID
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return ErrInvalidSignature
	}

	return nil
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, v, r, s *big.Int) (common.Address, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return common.Address{}, err
	}

	return fromBytes(data, v, r, s)
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())
	return hexutil.Encode(sig)
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, nil, nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, ErrInvalidSignature
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the oracleID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v.Uint64() - oracleID)

	return sig
}

// =============================================================================

func signBytes(data []byte, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {
	digest := stamp(data)

	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, rs) {
		return nil, nil, nil, ErrInvalidSignature
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + oracleID})

	return v, r, s, nil
}

func fromBytes(data []byte, v, r, s *big.Int) (common.Address, error) {

	// NOTE: If the same exact bytes for the given signature are not provided
	// we get back the wrong address. There is no way to detect this since the
	// public key is recovered from the data and the signature.

	publicKey, err := crypto.SigToPub(stamp(data), ToSignatureBytes(v, r, s))
	if err != nil {
		return common.Address{}, err
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}

// stamp returns a hash of 32 bytes that represents the data with the oracle
// stamp embedded so signatures produced here are only valid for the oracle.
func stamp(data []byte) []byte {
	hash := crypto.Keccak256(data)
	return crypto.Keccak256([]byte("\x19RealityCheck Signed Message:\n32"), hash)
}
