package contracts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// ArgKind is the Move type of a call argument.
type ArgKind string

const (
	ArgString        ArgKind = "string"
	ArgU8            ArgKind = "u8"
	ArgU64           ArgKind = "u64"
	ArgBool          ArgKind = "bool"
	ArgAddress       ArgKind = "address"
	ArgID            ArgKind = "id"
	ArgObject        ArgKind = "object"
	ArgAddressVector ArgKind = "vector<address>"
	ArgStringVector  ArgKind = "vector<string>"
	ArgBytes         ArgKind = "vector<u8>"
	ArgResult        ArgKind = "result"
)

// Arg is one typed call argument. Value holds a string, uint64, bool,
// Address, []Address, []string or []byte depending on Kind. Result args
// point at an earlier command's output.
type Arg struct {
	Kind    ArgKind `json:"kind"`
	Value   any     `json:"value,omitempty"`
	Mutable bool    `json:"mutable,omitempty"`
	Result  uint16  `json:"result,omitempty"`
}

func String(s string) Arg { return Arg{Kind: ArgString, Value: s} }
func U8(v uint8) Arg { return Arg{Kind: ArgU8, Value: uint64(v)} }
func U64(v uint64) Arg { return Arg{Kind: ArgU64, Value: v} }
func Bool(v bool) Arg { return Arg{Kind: ArgBool, Value: v} }
func AddressArg(a Address) Arg { return Arg{Kind: ArgAddress, Value: a} }
func ID(a Address) Arg { return Arg{Kind: ArgID, Value: a} }
func Bytes(b []byte) Arg { return Arg{Kind: ArgBytes, Value: append([]byte(nil), b...)} }
func Addresses(in []Address) Arg { return Arg{Kind: ArgAddressVector, Value: append([]Address{}, in...)} }
func Strings(in []string) Arg { return Arg{Kind: ArgStringVector, Value: append([]string{}, in...)} }
func Object(id Address) Arg { return Arg{Kind: ArgObject, Value: id, Mutable: true} }
func ReadOnlyObject(id Address) Arg { return Arg{Kind: ArgObject, Value: id} }

// pure returns the BCS bytes of a non-object argument.
func (a Arg) pure() ([]byte, error) {
	var e bcsEncoder
	switch a.Kind {
	case ArgString:
		s, ok := a.Value.(string)
		if !ok {
			return nil, a.shapeError()
		}
		e.str(s)
	case ArgU8:
		v, ok := a.Value.(uint64)
		if !ok || v > 0xff {
			return nil, a.shapeError()
		}
		e.u8(uint8(v))
	case ArgU64:
		v, ok := a.Value.(uint64)
		if !ok {
			return nil, a.shapeError()
		}
		e.u64(v)
	case ArgBool:
		v, ok := a.Value.(bool)
		if !ok {
			return nil, a.shapeError()
		}
		e.boolean(v)
	case ArgAddress, ArgID:
		v, ok := a.Value.(Address)
		if !ok {
			return nil, a.shapeError()
		}
		e.address(v)
	case ArgAddressVector:
		v, ok := a.Value.([]Address)
		if !ok {
			return nil, a.shapeError()
		}
		e.put(v)
	case ArgStringVector:
		v, ok := a.Value.([]string)
		if !ok {
			return nil, a.shapeError()
		}
		e.put(v)
	case ArgBytes:
		v, ok := a.Value.([]byte)
		if !ok {
			return nil, a.shapeError()
		}
		e.vecBytes(v)
	default:
		return nil, fmt.Errorf("%w: %s is not a pure argument", ErrInvalidArgument, a.Kind)
	}
	return e.bytes(), nil
}

func (a Arg) shapeError() error {
	return fmt.Errorf("%w: %s argument holds %T", ErrInvalidArgument, a.Kind, a.Value)
}

// MoveCall is a call to pkg::module::function.
type MoveCall struct {
	Target    string  `json:"target"`
	Package   Address `json:"package"`
	Module    string  `json:"module"`
	Function  string  `json:"function"`
	Arguments []Arg   `json:"arguments"`
}

// TransferObjects moves command results to a recipient.
type TransferObjects struct {
	Objects   []Arg `json:"objects"`
	Recipient Arg   `json:"recipient"`
}

// Command is exactly one of MoveCall or TransferObjects.
type Command struct {
	MoveCall        *MoveCall        `json:"moveCall,omitempty"`
	TransferObjects *TransferObjects `json:"transferObjects,omitempty"`
}

// Transaction is an unsigned call descriptor. It carries no sender, gas
// payment or signature; the wallet adds those.
type Transaction struct {
	Commands  []Command `json:"commands"`
	GasBudget uint64    `json:"gasBudget,omitempty"`
}

// NewTransaction returns an empty descriptor.
func NewTransaction() *Transaction {
	return &Transaction{Commands: []Command{}}
}

// MoveCall appends a call and returns an argument referring to its result.
func (tx *Transaction) MoveCall(pkg Address, module, function string, args ...Arg) Arg {
	tx.Commands = append(tx.Commands, Command{MoveCall: &MoveCall{
		Target:    fmt.Sprintf("%s::%s::%s", pkg, module, function),
		Package:   pkg,
		Module:    module,
		Function:  function,
		Arguments: append([]Arg{}, args...),
	}})
	return Arg{Kind: ArgResult, Result: uint16(len(tx.Commands) - 1)}
}

// Transfer appends a TransferObjects command.
func (tx *Transaction) Transfer(objects []Arg, recipient Address) {
	tx.Commands = append(tx.Commands, Command{TransferObjects: &TransferObjects{
		Objects:   append([]Arg{}, objects...),
		Recipient: AddressArg(recipient),
	}})
}

func (tx *Transaction) SetGasBudget(budget uint64) { tx.GasBudget = budget }

// Calls returns the move calls in order.
func (tx *Transaction) Calls() []*MoveCall {
	var out []*MoveCall
	for _, c := range tx.Commands {
		if c.MoveCall != nil {
			out = append(out, c.MoveCall)
		}
	}
	return out
}

// ObjectIDs lists object arguments in first-use order.
func (tx *Transaction) ObjectIDs() []Address {
	seen := make(map[Address]bool)
	var out []Address
	for _, call := range tx.Calls() {
		for _, a := range call.Arguments {
			if a.Kind != ArgObject {
				continue
			}
			id, _ := a.Value.(Address)
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// HasFunction reports whether any call targets module::function.
func (tx *Transaction) HasFunction(module, function string) bool {
	for _, call := range tx.Calls() {
		if call.Module == module && call.Function == function {
			return true
		}
	}
	return false
}

// ObjectOwnership says how an object input has to be referenced.
type ObjectOwnership struct {
	ID                   Address
	Shared               bool
	InitialSharedVersion uint64
	Version              uint64
	Digest               []byte
}

// ObjectResolver looks up ownership information for object inputs.
type ObjectResolver interface {
	ResolveObject(ctx context.Context, id Address) (ObjectOwnership, error)
}

var clockObject = MustParseAddress("0x6")

// EncodeKind serializes the descriptor as a BCS TransactionKind
// (ProgrammableTransaction), the form dev-inspect and wallets accept.
func (tx *Transaction) EncodeKind(ctx context.Context, resolver ObjectResolver) ([]byte, error) {
	type objInput struct {
		index   uint16
		mutable bool
	}

	var (
		inputs  [][]byte
		objects = make(map[Address]*objInput)
		order   []Address
	)

	// Shared objects are de-duplicated; the ownership lookup happens once
	// all mutability flags are known.
	resolveArg := func(a Arg) (uint16, error) {
		if a.Kind == ArgObject {
			id, ok := a.Value.(Address)
			if !ok {
				return 0, a.shapeError()
			}
			if in, ok := objects[id]; ok {
				in.mutable = in.mutable || a.Mutable
				return in.index, nil
			}
			idx := uint16(len(inputs))
			inputs = append(inputs, nil)
			objects[id] = &objInput{index: idx, mutable: a.Mutable}
			order = append(order, id)
			return idx, nil
		}
		b, err := a.pure()
		if err != nil {
			return 0, err
		}
		var e bcsEncoder
		e.u8(0) // CallArg::Pure
		e.vecBytes(b)
		inputs = append(inputs, e.bytes())
		return uint16(len(inputs) - 1), nil
	}

	var cmds bcsEncoder
	cmds.uleb128(uint64(len(tx.Commands)))

	encodeArgument := func(a Arg) error {
		if a.Kind == ArgResult {
			cmds.u8(2) // Argument::Result
			cmds.u16(a.Result)
			return nil
		}
		idx, err := resolveArg(a)
		if err != nil {
			return err
		}
		cmds.u8(1) // Argument::Input
		cmds.u16(idx)
		return nil
	}

	for _, c := range tx.Commands {
		switch {
		case c.MoveCall != nil:
			mc := c.MoveCall
			cmds.u8(0) // Command::MoveCall
			cmds.address(mc.Package)
			cmds.str(mc.Module)
			cmds.str(mc.Function)
			cmds.uleb128(0) // no type arguments
			cmds.uleb128(uint64(len(mc.Arguments)))
			for _, a := range mc.Arguments {
				if err := encodeArgument(a); err != nil {
					return nil, fmt.Errorf("%s: %w", mc.Target, err)
				}
			}
		case c.TransferObjects != nil:
			to := c.TransferObjects
			cmds.u8(1) // Command::TransferObjects
			cmds.uleb128(uint64(len(to.Objects)))
			for _, a := range to.Objects {
				if err := encodeArgument(a); err != nil {
					return nil, err
				}
			}
			if err := encodeArgument(to.Recipient); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: empty command", ErrInvalidArgument)
		}
	}

	for _, id := range order {
		in := objects[id]
		var e bcsEncoder
		e.u8(1) // CallArg::Object
		if id == clockObject {
			e.u8(1) // ObjectArg::SharedObject
			e.address(id)
			e.u64(1)
			e.boolean(false)
			inputs[in.index] = e.bytes()
			continue
		}
		if resolver == nil {
			return nil, fmt.Errorf("%w: object %s needs a resolver", ErrInvalidArgument, id)
		}
		own, err := resolver.ResolveObject(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve object %s: %w", id, err)
		}
		if own.Shared {
			e.u8(1)
			e.address(id)
			e.u64(own.InitialSharedVersion)
			e.boolean(in.mutable)
		} else {
			e.u8(0) // ObjectArg::ImmOrOwnedObject
			e.address(id)
			e.u64(own.Version)
			e.vecBytes(own.Digest)
		}
		inputs[in.index] = e.bytes()
	}

	var out bcsEncoder
	out.u8(0) // TransactionKind::ProgrammableTransaction
	out.uleb128(uint64(len(inputs)))
	for _, in := range inputs {
		out.fixed(in)
	}
	out.fixed(cmds.bytes())
	return out.bytes(), nil
}

// EncodeKindBase64 is EncodeKind in the base64 form the JSON-RPC API takes.
func (tx *Transaction) EncodeKindBase64(ctx context.Context, resolver ObjectResolver) (string, error) {
	b, err := tx.EncodeKind(ctx, resolver)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// SplitTarget breaks "pkg::module::function" apart.
func SplitTarget(target string) (Address, string, string, error) {
	parts := strings.Split(target, "::")
	if len(parts) != 3 {
		return Address{}, "", "", fmt.Errorf("%w: target %q", ErrInvalidArgument, target)
	}
	pkg, err := ParseAddress(parts[0])
	if err != nil {
		return Address{}, "", "", err
	}
	return pkg, parts[1], parts[2], nil
}
