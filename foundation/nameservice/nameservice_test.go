package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	root := t.TempDir()

	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, crypto.SaveECDSA(filepath.Join(root, "kennedy.ecdsa"), pk))

	ns, err := nameservice.New(root)
	require.NoError(t, err)

	account := crypto.PubkeyToAddress(pk.PublicKey)
	require.Equal(t, "kennedy", ns.Lookup(account))

	got, ok := ns.Resolve("kennedy")
	require.True(t, ok)
	require.Equal(t, account, got)

	other := "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	got, ok = ns.Resolve(other)
	require.True(t, ok)
	require.Equal(t, other, ns.Lookup(got))

	_, ok = ns.Resolve("nobody")
	require.False(t, ok)

	require.Len(t, ns.Copy(), 1)
}
