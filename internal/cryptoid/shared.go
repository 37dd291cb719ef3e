package cryptoid

import (
	"golang.org/x/crypto/curve25519"

	"pure2p/internal/model"
)

// DeriveShared computes k = scalar_mult(mySecret, theirPublic), spec
// §4.1. Symmetric: DeriveShared(a.sec, b.pub) == DeriveShared(b.sec,
// a.pub) for any two key-exchange keypairs, since both walk to the same
// point on the curve.
func DeriveShared(mySecret [32]byte, theirPublic []byte) ([32]byte, error) {
	var shared [32]byte
	if len(theirPublic) != 32 {
		return shared, model.NewError(model.KindCrypto, "invalid key-exchange public key length", nil)
	}
	var pub [32]byte
	copy(pub[:], theirPublic)
	curve25519.ScalarMult(&shared, &mySecret, &pub)
	return shared, nil
}
