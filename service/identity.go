package service

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Reserved owner labels for the internally managed service accounts.
const (
	houseOwner   = "house"
	reserveOwner = "reserve"
)

// AccountResolver derives stable managed-account addresses from external
// owner identities. Derivation is a one-way hash of the master seed and the
// owner id, so no per-owner key material is ever stored and the mapping
// cannot be reversed.
type AccountResolver struct {
	seed []byte
}

// NewAccountResolver creates a resolver bound to the master seed. The seed is
// the most sensitive in-memory secret and must never reach logs.
func NewAccountResolver(masterSeed string) *AccountResolver {
	return &AccountResolver{seed: []byte(masterSeed)}
}

// Resolve returns the managed account address for owner. The same owner
// always resolves to the same address under a given master seed.
func (r *AccountResolver) Resolve(owner string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(r.seed)
	h.Write([]byte(":"))
	h.Write([]byte(owner))
	sum := h.Sum(nil)
	// Low 20 bytes, the conventional address width on the network.
	return "0x" + hex.EncodeToString(sum[len(sum)-20:])
}

// HouseAccount returns the managed address holding the house reserve.
func (r *AccountResolver) HouseAccount() string {
	return r.Resolve(houseOwner)
}

// ReserveAccount returns the managed address that receives transfers for
// untracked accounts.
func (r *AccountResolver) ReserveAccount() string {
	return r.Resolve(reserveOwner)
}
