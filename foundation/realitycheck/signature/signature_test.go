package signature_test

import (
	"math/big"
	"testing"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

type submission struct {
	QuestionID string `json:"question_id"`
	Bond       uint64 `json:"bond"`
}

// =============================================================================

func Test_Signing(t *testing.T) {
	value := submission{QuestionID: "0x01", Bond: 2}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	v, r, s, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.VerifySignature(v, r, s); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}

	addr, err := signature.FromAddress(value, v, r, s)
	if err != nil {
		t.Fatalf("Should be able to generate from address: %s", err)
	}

	if addr != common.HexToAddress(from) {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	str := signature.SignatureString(v, r, s)

	v2, r2, s2, err := signature.ToVRSFromHexSignature(str)
	if err != nil {
		t.Fatalf("Should be able to parse the signature string: %s", err)
	}

	if v.Cmp(v2) != 0 || r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
		t.Fatalf("Should get back the same signature values.")
	}
}

func Test_Signed(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sd, err := signature.NewSigned(submission{QuestionID: "0x02", Bond: 4}, pk)
	if err != nil {
		t.Fatalf("Should be able to sign the request: %s", err)
	}

	addr, err := sd.Signer()
	if err != nil {
		t.Fatalf("Should be able to recover the signer: %s", err)
	}

	if addr != common.HexToAddress(from) {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right signer.")
	}

	var got submission
	if err := sd.Decode(&got); err != nil {
		t.Fatalf("Should be able to decode the request: %s", err)
	}

	if got.Bond != 4 {
		t.Fatalf("Should get back the signed request: %+v", got)
	}

	// Changing the data must change the signer.
	sd.Data = []byte(`{"question_id":"0x02","bond":8}`)
	addr, err = sd.Signer()
	if err == nil && addr == common.HexToAddress(from) {
		t.Fatalf("Should not recover the same signer for altered data.")
	}

	sd.V = big.NewInt(27)
	if _, err := sd.Signer(); err == nil {
		t.Fatalf("Should reject a foreign recovery id.")
	}
}
