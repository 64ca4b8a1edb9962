package contracts

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrForgedPass is returned when a presented pass hash does not match the one
// recomputed from (passID, eventID, wallet).
var ErrForgedPass = errors.New("pass hash mismatch")

// PassHash binds a registration pass to a wallet. The layout has to match
// the contract byte for byte: BCS u64 pass id, then the event id and wallet
// as 32-byte addresses, hashed with keccak-256.
func PassHash(passID uint64, eventID, wallet Address) [32]byte {
	buf := make([]byte, 0, 8+2*AddressLength)
	buf = append(buf, EncodeU64(passID)...)
	buf = append(buf, eventID[:]...)
	buf = append(buf, wallet[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// PassHashHex is PassHash as 0x-prefixed hex.
func PassHashHex(passID uint64, eventID, wallet Address) string {
	h := PassHash(passID, eventID, wallet)
	return hexutil.Encode(h[:])
}

// ParsePassHash decodes a presented 32-byte hash (with or without 0x).
// Anything else is reported as a forged pass.
func ParsePassHash(presented string) ([32]byte, error) {
	var out [32]byte
	presented = strings.TrimSpace(presented)
	if !strings.HasPrefix(presented, "0x") {
		presented = "0x" + presented
	}
	b, err := hexutil.Decode(presented)
	if err != nil {
		return out, fmt.Errorf("%w: malformed hash: %v", ErrForgedPass, err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("%w: hash is %d bytes", ErrForgedPass, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// VerifyPassHash recomputes the hash and compares it with the presented hex
// value (with or without 0x).
func VerifyPassHash(passID uint64, eventID, wallet Address, presented string) error {
	got, err := ParsePassHash(presented)
	if err != nil {
		return err
	}
	want := PassHash(passID, eventID, wallet)
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		return ErrForgedPass
	}
	return nil
}
