package contracts

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Wire shapes of the Sui JSON-RPC API. Only the fields this service reads
// are declared.

var errMissingField = errors.New("missing field")

// StringU64 decodes a u64 sent either as a JSON string or a number. The node
// sends u64 values as strings to avoid precision loss in browsers.
type StringU64 uint64

func (v *StringU64) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*v = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %s: %w", b, err)
	}
	*v = StringU64(n)
	return nil
}

func (v StringU64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(v), 10))), nil
}

// ObjectDataOptions selects the parts of an object the node returns.
type ObjectDataOptions struct {
	ShowType                bool `json:"showType,omitempty"`
	ShowOwner               bool `json:"showOwner,omitempty"`
	ShowContent             bool `json:"showContent,omitempty"`
	ShowPreviousTransaction bool `json:"showPreviousTransaction,omitempty"`
}

// FullObjectOptions is what reconstructors ask for.
var FullObjectOptions = ObjectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true}

type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

type ObjectData struct {
	ObjectID            string       `json:"objectId"`
	Version             StringU64    `json:"version"`
	Digest              string       `json:"digest"`
	Type                string       `json:"type,omitempty"`
	Owner               *Owner       `json:"owner,omitempty"`
	Content             *MoveContent `json:"content,omitempty"`
	PreviousTransaction string       `json:"previousTransaction,omitempty"`
}

// MoveObject returns the Move fields, or false when the content is missing
// or is a package.
func (o *ObjectResponse) MoveObject() (*ObjectData, MoveFields, bool) {
	if o == nil || o.Data == nil || o.Data.Content == nil {
		return nil, nil, false
	}
	if o.Data.Content.DataType != "moveObject" || o.Data.Content.Fields == nil {
		return nil, nil, false
	}
	return o.Data, o.Data.Content.Fields, true
}

type MoveContent struct {
	DataType string     `json:"dataType"`
	Type     string     `json:"type,omitempty"`
	Fields   MoveFields `json:"fields,omitempty"`
}

// Owner is one of AddressOwner, ObjectOwner, Shared or the bare string
// "Immutable".
type Owner struct {
	AddressOwner string       `json:"AddressOwner,omitempty"`
	ObjectOwner  string       `json:"ObjectOwner,omitempty"`
	Shared       *SharedOwner `json:"Shared,omitempty"`
	Immutable    bool         `json:"-"`
}

type SharedOwner struct {
	InitialSharedVersion StringU64 `json:"initial_shared_version"`
}

func (o *Owner) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = Owner{Immutable: s == "Immutable"}
		return nil
	}
	type plain Owner
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Owner(p)
	return nil
}

// MoveFields is a Move struct as the node renders it in JSON.
type MoveFields map[string]json.RawMessage

func (f MoveFields) raw(name string) (json.RawMessage, error) {
	v, ok := f[name]
	if !ok || bytes.Equal(v, []byte("null")) {
		return nil, fmt.Errorf("%w %q", errMissingField, name)
	}
	return v, nil
}

func (f MoveFields) Has(name string) bool {
	_, err := f.raw(name)
	return err == nil
}

func (f MoveFields) String(name string) (string, error) {
	v, err := f.raw(name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", name, err)
	}
	return s, nil
}

// StringOr returns the field or def when it is absent or not a string.
func (f MoveFields) StringOr(name, def string) string {
	s, err := f.String(name)
	if err != nil {
		return def
	}
	return s
}

func (f MoveFields) U64(name string) (uint64, error) {
	v, err := f.raw(name)
	if err != nil {
		return 0, err
	}
	var n StringU64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return uint64(n), nil
}

func (f MoveFields) U64Or(name string, def uint64) uint64 {
	n, err := f.U64(name)
	if err != nil {
		return def
	}
	return n
}

func (f MoveFields) Bool(name string) (bool, error) {
	v, err := f.raw(name)
	if err != nil {
		return false, err
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, fmt.Errorf("field %q: %w", name, err)
	}
	return b, nil
}

func (f MoveFields) BoolOr(name string, def bool) bool {
	b, err := f.Bool(name)
	if err != nil {
		return def
	}
	return b
}

// Address reads an address or ID. A UID renders as {"id": "0x.."}; a plain
// ID renders as the string itself. Both are accepted.
func (f MoveFields) Address(name string) (Address, error) {
	v, err := f.raw(name)
	if err != nil {
		return Address{}, err
	}
	return decodeAddressValue(v)
}

func decodeAddressValue(v json.RawMessage) (Address, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return ParseAddress(s)
	}
	var uid struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(v, &uid); err != nil || uid.ID == nil {
		return Address{}, fmt.Errorf("%w: unexpected id shape %s", ErrInvalidAddress, v)
	}
	return decodeAddressValue(uid.ID)
}

// Struct returns the fields of a nested struct, unwrapping the
// {"type": .., "fields": {..}} envelope when present.
func (f MoveFields) Struct(name string) (MoveFields, error) {
	v, err := f.raw(name)
	if err != nil {
		return nil, err
	}
	return decodeStruct(v)
}

func decodeStruct(v json.RawMessage) (MoveFields, error) {
	var inner MoveFields
	if err := json.Unmarshal(v, &inner); err != nil {
		return nil, err
	}
	if fields, ok := inner["fields"]; ok && inner.Has("type") {
		var unwrapped MoveFields
		if err := json.Unmarshal(fields, &unwrapped); err != nil {
			return nil, err
		}
		return unwrapped, nil
	}
	return inner, nil
}

// Structs reads a vector of structs.
func (f MoveFields) Structs(name string) ([]MoveFields, error) {
	v, err := f.raw(name)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	out := make([]MoveFields, 0, len(items))
	for _, item := range items {
		s, err := decodeStruct(item)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// FirstAddress returns the first of names that holds an address. Event
// payloads are not consistent about naming the wallet field.
func (f MoveFields) FirstAddress(names ...string) (Address, error) {
	for _, n := range names {
		if a, err := f.Address(n); err == nil {
			return a, nil
		}
	}
	return Address{}, fmt.Errorf("%w %v", errMissingField, names)
}

// Option reads an Option<T>. It accepts null, a bare value, or the
// {"vec": [..]} form, and returns the inner value when some.
func (f MoveFields) Option(name string) (json.RawMessage, bool) {
	v, ok := f[name]
	if !ok || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	var vec struct {
		Vec []json.RawMessage `json:"vec"`
	}
	if err := json.Unmarshal(v, &vec); err == nil && vec.Vec != nil {
		if len(vec.Vec) == 0 {
			return nil, false
		}
		return vec.Vec[0], true
	}
	if s, err := decodeStruct(v); err == nil {
		if raw, ok := s["vec"]; ok {
			var items []json.RawMessage
			if json.Unmarshal(raw, &items) == nil {
				if len(items) == 0 {
					return nil, false
				}
				return items[0], true
			}
		}
	}
	return v, true
}

func (f MoveFields) Strings(name string) ([]string, error) {
	v, err := f.raw(name)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (f MoveFields) Addresses(name string) ([]Address, error) {
	v, err := f.raw(name)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	out := make([]Address, 0, len(items))
	for _, item := range items {
		a, err := decodeAddressValue(item)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Bytes reads a vector<u8>, which the node renders as an array of numbers.
// Hex and base64 strings are accepted too.
func (f MoveFields) Bytes(name string) ([]byte, error) {
	v, err := f.raw(name)
	if err != nil {
		return nil, err
	}
	return decodeByteArray(v)
}

func decodeByteArray(v json.RawMessage) ([]byte, error) {
	var nums []uint16
	if err := json.Unmarshal(v, &nums); err == nil {
		out := make([]byte, len(nums))
		for i, n := range nums {
			if n > 0xff {
				return nil, fmt.Errorf("byte value %d out of range", n)
			}
			out[i] = byte(n)
		}
		return out, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("unexpected byte array %s", v)
	}
	if strings.HasPrefix(s, "0x") {
		return hexutil.Decode(s)
	}
	return base64.StdEncoding.DecodeString(s)
}

// SuiEvent is an event emitted by a transaction.
type SuiEvent struct {
	ID                EventID    `json:"id"`
	PackageID         string     `json:"packageId"`
	TransactionModule string     `json:"transactionModule"`
	Sender            string     `json:"sender"`
	Type              string     `json:"type"`
	ParsedJSON        MoveFields `json:"parsedJson"`
	TimestampMs       StringU64  `json:"timestampMs,omitempty"`
}

type EventID struct {
	TxDigest string    `json:"txDigest"`
	EventSeq StringU64 `json:"eventSeq"`
}

// IsType matches the event type against "module::Name" regardless of the
// package address, which changes between deployments.
func (e SuiEvent) IsType(module, name string) bool {
	return strings.HasSuffix(e.Type, "::"+module+"::"+name)
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s ExecutionStatus) Success() bool { return s.Status == "success" }

type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

type ObjectChange struct {
	Type       string    `json:"type"`
	Sender     string    `json:"sender,omitempty"`
	ObjectType string    `json:"objectType,omitempty"`
	ObjectID   string    `json:"objectId,omitempty"`
	Version    StringU64 `json:"version,omitempty"`
	Digest     string    `json:"digest,omitempty"`
}

type TransactionBlock struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	Events        []SuiEvent          `json:"events,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
	TimestampMs   StringU64           `json:"timestampMs,omitempty"`
	Checkpoint    string              `json:"checkpoint,omitempty"`
}

type TransactionBlockOptions struct {
	ShowInput         bool `json:"showInput,omitempty"`
	ShowEffects       bool `json:"showEffects,omitempty"`
	ShowEvents        bool `json:"showEvents,omitempty"`
	ShowObjectChanges bool `json:"showObjectChanges,omitempty"`
}

type MoveFunctionFilter struct {
	Package  string `json:"package"`
	Module   string `json:"module"`
	Function string `json:"function"`
}

type TransactionFilter struct {
	MoveFunction *MoveFunctionFilter `json:"MoveFunction,omitempty"`
}

type TransactionBlockQuery struct {
	Filter  TransactionFilter       `json:"filter"`
	Options TransactionBlockOptions `json:"options"`
}

type TransactionBlockPage struct {
	Data        []TransactionBlock `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

type ObjectFilter struct {
	StructType string `json:"StructType,omitempty"`
}

type OwnedObjectsQuery struct {
	Filter  *ObjectFilter     `json:"filter,omitempty"`
	Options ObjectDataOptions `json:"options"`
}

type OwnedObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

type Coin struct {
	CoinType     string    `json:"coinType"`
	CoinObjectID string    `json:"coinObjectId"`
	Version      StringU64 `json:"version"`
	Digest       string    `json:"digest"`
	Balance      StringU64 `json:"balance"`
}

type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// ReturnValue is one Move return value of a simulated call. The node sends
// it as [[byte, byte, ..], "type"].
type ReturnValue struct {
	Bytes []byte
	Type  string
}

func (r *ReturnValue) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("return value has %d elements, want 2", len(pair))
	}
	raw, err := decodeByteArray(pair[0])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(pair[1], &r.Type); err != nil {
		return err
	}
	r.Bytes = raw
	return nil
}

func (r ReturnValue) MarshalJSON() ([]byte, error) {
	nums := make([]uint16, len(r.Bytes))
	for i, b := range r.Bytes {
		nums[i] = uint16(b)
	}
	return json.Marshal([]any{nums, r.Type})
}

type ExecutionResult struct {
	ReturnValues []ReturnValue `json:"returnValues,omitempty"`
}

type DevInspectResults struct {
	Effects *TransactionEffects `json:"effects,omitempty"`
	Results []ExecutionResult   `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}
