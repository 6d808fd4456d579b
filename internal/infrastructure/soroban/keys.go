package soroban

import (
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

// KeyResolver derives public addresses from secret seeds
type KeyResolver struct{}

// AddressOf returns the G... address of a secret seed
func (KeyResolver) AddressOf(secret string) (string, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return "", shared.ErrInvalidInput.WithMessage("Invalid secret key")
	}
	return kp.Address(), nil
}

// IsValidAccountAddress reports whether s is a G... account strkey
func IsValidAccountAddress(s string) bool {
	return strkey.IsValidEd25519PublicKey(s)
}

// IsValidSecret reports whether s is an S... secret seed
func IsValidSecret(s string) bool {
	return strkey.IsValidEd25519SecretSeed(s)
}

// IsValidContractAddress reports whether s is a C... contract strkey
func IsValidContractAddress(s string) bool {
	_, err := strkey.Decode(strkey.VersionByteContract, s)
	return err == nil
}
