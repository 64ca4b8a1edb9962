package contracts

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fardream/go-bcs/bcs"
)

// BCS is the canonical Move serialization. Values go through go-bcs; the
// encoder and decoder below only add the sequencing needed to lay out a
// TransactionKind by hand and to step through dev-inspect return values.

var errShortBuffer = errors.New("bcs: unexpected end of input")

type bcsEncoder struct {
	buf []byte
}

func (e *bcsEncoder) bytes() []byte { return e.buf }

// put appends the BCS form of v. Only fixed shapes reach it, none of
// which go-bcs can refuse.
func (e *bcsEncoder) put(v any) {
	b, err := bcs.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("bcs: marshal %T: %v", v, err))
	}
	e.buf = append(e.buf, b...)
}

func (e *bcsEncoder) u8(v uint8) { e.put(v) }

func (e *bcsEncoder) u16(v uint16) { e.put(v) }

func (e *bcsEncoder) u64(v uint64) { e.put(v) }

func (e *bcsEncoder) boolean(v bool) { e.put(v) }

func (e *bcsEncoder) uleb128(v uint64) { e.buf = append(e.buf, bcs.ULEB128Encode(v)...) }

func (e *bcsEncoder) fixed(b []byte) { e.buf = append(e.buf, b...) }

func (e *bcsEncoder) vecBytes(b []byte) { e.put(b) }

func (e *bcsEncoder) str(s string) { e.put(s) }

func (e *bcsEncoder) address(a Address) { e.put([AddressLength]byte(a)) }

// EncodeU64 returns the BCS form of v: 8 bytes, little-endian.
func EncodeU64(v uint64) []byte {
	var e bcsEncoder
	e.u64(v)
	return e.bytes()
}

type bcsDecoder struct {
	buf []byte
	off int
}

func newBCSDecoder(b []byte) *bcsDecoder { return &bcsDecoder{buf: b} }

func (d *bcsDecoder) remaining() int { return len(d.buf) - d.off }

func (d *bcsDecoder) take(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, errShortBuffer
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out, nil
}

// read unmarshals the next size bytes into v.
func (d *bcsDecoder) read(size int, v any) error {
	b, err := d.take(size)
	if err != nil {
		return err
	}
	n, err := bcs.Unmarshal(b, v)
	if err != nil {
		return fmt.Errorf("bcs: %w", err)
	}
	if n != size {
		return fmt.Errorf("bcs: read %d of %d bytes", n, size)
	}
	return nil
}

func (d *bcsDecoder) u8() (uint8, error) {
	var v uint8
	err := d.read(1, &v)
	return v, err
}

func (d *bcsDecoder) u64() (uint64, error) {
	var v uint64
	err := d.read(8, &v)
	return v, err
}

func (d *bcsDecoder) boolean() (bool, error) {
	if d.remaining() < 1 {
		return false, errShortBuffer
	}
	if b := d.buf[d.off]; b > 1 {
		return false, fmt.Errorf("bcs: invalid bool byte %d", b)
	}
	var v bool
	err := d.read(1, &v)
	return v, err
}

func (d *bcsDecoder) uleb128() (uint64, error) {
	v, n, err := bcs.ULEB128Decode[uint64](bytes.NewReader(d.buf[d.off:]))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, errShortBuffer
		}
		return 0, fmt.Errorf("bcs: %w", err)
	}
	d.off += n
	return v, nil
}

func (d *bcsDecoder) vecBytes() ([]byte, error) {
	start := d.off
	n, err := d.uleb128()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.remaining()) {
		return nil, errShortBuffer
	}
	size := d.off - start + int(n)
	d.off = start
	var out []byte
	if err := d.read(size, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *bcsDecoder) str() (string, error) {
	b, err := d.vecBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *bcsDecoder) address() (Address, error) {
	var raw [AddressLength]byte
	err := d.read(AddressLength, &raw)
	return Address(raw), err
}

func (d *bcsDecoder) addresses() ([]Address, error) {
	start := d.off
	n, err := d.uleb128()
	if err != nil {
		return nil, err
	}
	if n*AddressLength > uint64(d.remaining()) {
		return nil, errShortBuffer
	}
	size := d.off - start + int(n)*AddressLength
	d.off = start
	var raw [][AddressLength]byte
	if err := d.read(size, &raw); err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(raw))
	for _, a := range raw {
		out = append(out, Address(a))
	}
	return out, nil
}

// DecodeU64 reads a BCS u64 and requires the input to be exactly 8 bytes.
func DecodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("bcs: u64 needs 8 bytes, got %d", len(b))
	}
	return newBCSDecoder(b).u64()
}

// DecodeBool reads a BCS bool and requires the input to be exactly one byte.
func DecodeBool(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, fmt.Errorf("bcs: bool needs 1 byte, got %d", len(b))
	}
	return newBCSDecoder(b).boolean()
}

// DecodeString reads a BCS string, which Move encodes as vector<u8>.
func DecodeString(b []byte) (string, error) {
	d := newBCSDecoder(b)
	s, err := d.str()
	if err != nil {
		return "", err
	}
	if d.remaining() != 0 {
		return "", fmt.Errorf("bcs: %d trailing bytes after string", d.remaining())
	}
	return s, nil
}

// DecodeOptionalAddress accepts a bare 32-byte ID or an Option<ID>
// (0x00 for none, 0x01 followed by 32 bytes for some).
func DecodeOptionalAddress(b []byte) (Address, bool, error) {
	switch {
	case len(b) == AddressLength:
		a, err := DecodeAddress(b)
		return a, err == nil, err
	case len(b) == 1 && b[0] == 0:
		return Address{}, false, nil
	case len(b) == AddressLength+1 && b[0] == 1:
		a, err := DecodeAddress(b[1:])
		return a, err == nil, err
	default:
		return Address{}, false, fmt.Errorf("bcs: unexpected id encoding of %d bytes", len(b))
	}
}

// DecodeAddressVector reads vector<address> or vector<ID>.
func DecodeAddressVector(b []byte) ([]Address, error) {
	d := newBCSDecoder(b)
	out, err := d.addresses()
	if err != nil {
		return nil, err
	}
	if d.remaining() != 0 {
		return nil, fmt.Errorf("bcs: %d trailing bytes after vector", d.remaining())
	}
	return out, nil
}

// DecodeU8 reads a BCS u8 and requires the input to be exactly one byte.
func DecodeU8(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("bcs: u8 needs 1 byte, got %d", len(b))
	}
	return newBCSDecoder(b).u8()
}

// DecodeAddress reads a bare address or ID.
func DecodeAddress(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("bcs: address needs %d bytes, got %d", AddressLength, len(b))
	}
	return newBCSDecoder(b).address()
}
