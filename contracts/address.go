package contracts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLength is the width of a Sui address or object id.
const AddressLength = 32

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Address is a Sui account address or object id. Object ids and addresses
// share one encoding on chain.
type Address [AddressLength]byte

// ParseAddress accepts 0x-prefixed or bare hex, short forms included ("0x6"),
// and left-pads to 32 bytes.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if raw == "" || len(raw) > AddressLength*2 {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(a[:], common.LeftPadBytes(b, AddressLength))
	return a, nil
}

// MustParseAddress is ParseAddress for constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the canonical 0x-prefixed 64 hex digit form.
func (a Address) String() string {
	return hexutil.Encode(a[:])
}

// Short returns the first n characters of the canonical form, "0x" included.
func (a Address) Short(n int) string {
	s := a.String()
	if n >= len(s) {
		return s
	}
	return s[:n]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// SameAddress compares two textual addresses after normalization. Malformed
// input never matches.
func SameAddress(x, y string) bool {
	a, err := ParseAddress(x)
	if err != nil {
		return false
	}
	b, err := ParseAddress(y)
	if err != nil {
		return false
	}
	return a == b
}

// ParseAddresses parses every entry or fails on the first bad one.
func ParseAddresses(in []string) ([]Address, error) {
	out := make([]Address, 0, len(in))
	for i, s := range in {
		a, err := ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
