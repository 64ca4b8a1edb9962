package contracts

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"ariya-backend/config"
)

var (
	testPackage  = MustParseAddress("0xa11a")
	testEventReg = MustParseAddress("0xe1")
	testRegReg   = MustParseAddress("0xe2")
	testAttReg   = MustParseAddress("0xe3")
	testDropReg  = MustParseAddress("0xe4")
	testNFTReg   = MustParseAddress("0xe5")
	testRateReg  = MustParseAddress("0xe6")
	testProfReg  = MustParseAddress("0xe7")
	testCommReg  = MustParseAddress("0xe8")
	testSubReg   = MustParseAddress("0xe9")
	testSubCfg   = MustParseAddress("0xea")
	testTreasury = MustParseAddress("0xeb")

	testEvent   = MustParseAddress("0x697a9349dd71d46b88219c0837b0e8ef52cc8c8624f96a5d52bc92a60dc0e1f5")
	testWallet  = MustParseAddress("0x5b0a5b6e12a6eed5f4b263d75cde60ce4d6c52b9bfb08f8e5447073e37d2e813")
	testOther   = MustParseAddress("0xb0b")
	testProfile = MustParseAddress("0xfeed")
)

var errNodeDown = errors.New("node unavailable")

func testDeployment() Deployment {
	return Deployment{
		Package:              testPackage,
		EventRegistry:        testEventReg,
		RegistrationRegistry: testRegReg,
		AttendanceRegistry:   testAttReg,
		AirdropRegistry:      testDropReg,
		NFTRegistry:          testNFTReg,
		RatingRegistry:       testRateReg,
		ProfileRegistry:      testProfReg,
		CommunityRegistry:    testCommReg,
		SubscriptionRegistry: testSubReg,
		SubscriptionConfig:   testSubCfg,
		PlatformTreasury:     testTreasury,
		Clock:                clockObject,
	}
}

// inspectCall is the last Move call of a dev-inspected transaction. Pure
// holds the raw BCS of each pure argument and nil for object arguments.
type inspectCall struct {
	Module   string
	Function string
	Pure     [][]byte
	Objects  []Address
}

// inspectFunc answers a dev-inspect call with return values, or with a
// non-empty abort status.
type inspectFunc func(call inspectCall) ([]ReturnValue, string)

// fakeNode is an in-memory Sui full node.
type fakeNode struct {
	mu        sync.Mutex
	objects   map[Address]ObjectResponse
	txs       map[string][]TransactionBlock
	blocks    map[string]TransactionBlock
	owned     map[Address][]ObjectResponse
	coins     map[Address][]Coin
	inspect   map[string]inspectFunc
	inspected []inspectCall
	fail      bool
}

func newFakeNode() *fakeNode {
	n := &fakeNode{
		objects: make(map[Address]ObjectResponse),
		txs:     make(map[string][]TransactionBlock),
		blocks:  make(map[string]TransactionBlock),
		owned:   make(map[Address][]ObjectResponse),
		coins:   make(map[Address][]Coin),
		inspect: make(map[string]inspectFunc),
	}
	d := testDeployment()
	for _, id := range []Address{d.EventRegistry, d.RegistrationRegistry, d.AttendanceRegistry, d.AirdropRegistry,
		d.NFTRegistry, d.RatingRegistry, d.ProfileRegistry, d.CommunityRegistry, d.SubscriptionConfig, d.PlatformTreasury} {
		n.addShared(id, "registry", nil)
	}
	return n
}

func (n *fakeNode) setFail(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = v
}

func mustFields(v map[string]any) MoveFields {
	out := make(MoveFields, len(v))
	for k, field := range v {
		b, err := json.Marshal(field)
		if err != nil {
			panic(err)
		}
		out[k] = b
	}
	return out
}

func testDigest(seed byte) string {
	d := make([]byte, 32)
	for i := range d {
		d[i] = seed
	}
	return base58.Encode(d)
}

// addShared stores a shared Move object of type pkg::<typ>.
func (n *fakeNode) addShared(id Address, typ string, fields map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.objects[id] = ObjectResponse{Data: &ObjectData{
		ObjectID: id.String(),
		Version:  7,
		Digest:   testDigest(1),
		Type:     testPackage.String() + "::" + typ,
		Owner:    &Owner{Shared: &SharedOwner{InitialSharedVersion: 3}},
		Content: &MoveContent{
			DataType: "moveObject",
			Type:     testPackage.String() + "::" + typ,
			Fields:   mustFields(fields),
		},
	}}
}

// addOwned gives owner an object of type module::name.
func (n *fakeNode) addOwned(owner, id Address, module, name string, fields map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	typ := testDeployment().StructType(module, name)
	obj := ObjectResponse{Data: &ObjectData{
		ObjectID: id.String(),
		Version:  11,
		Digest:   testDigest(2),
		Type:     typ,
		Owner:    &Owner{AddressOwner: owner.String()},
		Content:  &MoveContent{DataType: "moveObject", Type: typ, Fields: mustFields(fields)},
	}}
	n.objects[id] = obj
	n.owned[owner] = append(n.owned[owner], obj)
}

// addTx appends a transaction that called module::function. Later calls
// are newer.
func (n *fakeNode) addTx(module, function string, tx TransactionBlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := module + "::" + function
	n.txs[key] = append([]TransactionBlock{tx}, n.txs[key]...)
	if tx.Digest != "" {
		n.blocks[tx.Digest] = tx
	}
}

func testEventOf(module, name string, parsed map[string]any) SuiEvent {
	return SuiEvent{
		PackageID:         testPackage.String(),
		TransactionModule: module,
		Type:              testPackage.String() + "::" + module + "::" + name,
		ParsedJSON:        mustFields(parsed),
	}
}

// addEvent records a transaction of module::function emitting one event.
func (n *fakeNode) addEvent(module, function, name string, parsed map[string]any) {
	n.addTx(module, function, TransactionBlock{Events: []SuiEvent{testEventOf(module, name, parsed)}})
}

func (n *fakeNode) addBlock(tx TransactionBlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocks[tx.Digest] = tx
}

func (n *fakeNode) onInspect(module, function string, f inspectFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inspect[module+"::"+function] = f
}

func (n *fakeNode) inspectedCalls() []inspectCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]inspectCall(nil), n.inspected...)
}

func (n *fakeNode) down() error {
	if n.fail {
		return errNodeDown
	}
	return nil
}

type suiService struct{ n *fakeNode }

func (s *suiService) GetObject(id string, _ ObjectDataOptions) (*ObjectResponse, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	a, err := ParseAddress(id)
	if err != nil {
		return nil, err
	}
	obj, ok := s.n.objects[a]
	if !ok {
		return &ObjectResponse{Error: &ObjectError{Code: "notExists", ObjectID: id}}, nil
	}
	return &obj, nil
}

func (s *suiService) GetTransactionBlock(digest string, _ TransactionBlockOptions) (*TransactionBlock, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	tx, ok := s.n.blocks[digest]
	if !ok {
		return nil, fmt.Errorf("could not find the referenced transaction [%s]", digest)
	}
	return &tx, nil
}

func (s *suiService) DevInspectTransactionBlock(_ string, kind string, _ *string, _ *string) (*DevInspectResults, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	call, err := decodeInspect(kind)
	if err != nil {
		return nil, err
	}
	s.n.inspected = append(s.n.inspected, call)
	f, ok := s.n.inspect[call.Module+"::"+call.Function]
	if !ok {
		return &DevInspectResults{
			Effects: &TransactionEffects{Status: ExecutionStatus{Status: "failure", Error: "FUNCTION_RESOLUTION_FAILURE"}},
			Error:   "FUNCTION_RESOLUTION_FAILURE",
		}, nil
	}
	values, abort := f(call)
	if abort != "" {
		return &DevInspectResults{
			Effects: &TransactionEffects{Status: ExecutionStatus{Status: "failure", Error: abort}},
			Error:   abort,
		}, nil
	}
	return &DevInspectResults{
		Effects: &TransactionEffects{Status: ExecutionStatus{Status: "success"}},
		Results: []ExecutionResult{{ReturnValues: values}},
	}, nil
}

type suixService struct{ n *fakeNode }

func (s *suixService) QueryTransactionBlocks(q TransactionBlockQuery, cursor *string, limit int, _ bool) (*TransactionBlockPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	if q.Filter.MoveFunction == nil {
		return nil, errors.New("only MoveFunction filters are supported")
	}
	all := s.n.txs[q.Filter.MoveFunction.Module+"::"+q.Filter.MoveFunction.Function]
	start := 0
	if cursor != nil {
		start, _ = strconv.Atoi(*cursor)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := &TransactionBlockPage{Data: append([]TransactionBlock{}, all[start:end]...)}
	if end < len(all) {
		next := strconv.Itoa(end)
		page.NextCursor = &next
		page.HasNextPage = true
	}
	return page, nil
}

func (s *suixService) GetOwnedObjects(owner string, q OwnedObjectsQuery, _ *string, _ int) (*OwnedObjectsPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	a, err := ParseAddress(owner)
	if err != nil {
		return nil, err
	}
	page := &OwnedObjectsPage{Data: []ObjectResponse{}}
	for _, obj := range s.n.owned[a] {
		if q.Filter != nil && q.Filter.StructType != "" && obj.Data.Type != q.Filter.StructType {
			continue
		}
		page.Data = append(page.Data, obj)
	}
	return page, nil
}

func (s *suixService) GetCoins(owner string, _ string, _ *string, _ int) (*CoinPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.down(); err != nil {
		return nil, err
	}
	a, err := ParseAddress(owner)
	if err != nil {
		return nil, err
	}
	return &CoinPage{Data: append([]Coin{}, s.n.coins[a]...)}, nil
}

// decodeInspect reads back the TransactionKind produced by EncodeKind.
func decodeInspect(kind string) (inspectCall, error) {
	raw, err := base64.StdEncoding.DecodeString(kind)
	if err != nil {
		return inspectCall{}, err
	}
	d := newBCSDecoder(raw)
	if tag, err := d.u8(); err != nil || tag != 0 {
		return inspectCall{}, fmt.Errorf("not a programmable transaction")
	}

	type input struct {
		pure []byte
		obj  Address
	}
	n, err := d.uleb128()
	if err != nil {
		return inspectCall{}, err
	}
	inputs := make([]input, 0, n)
	for i := uint64(0); i < n; i++ {
		tag, err := d.u8()
		if err != nil {
			return inspectCall{}, err
		}
		switch tag {
		case 0:
			b, err := d.vecBytes()
			if err != nil {
				return inspectCall{}, err
			}
			inputs = append(inputs, input{pure: b})
		case 1:
			objTag, err := d.u8()
			if err != nil {
				return inspectCall{}, err
			}
			id, err := d.address()
			if err != nil {
				return inspectCall{}, err
			}
			if _, err := d.u64(); err != nil {
				return inspectCall{}, err
			}
			if objTag == 0 {
				_, err = d.vecBytes()
			} else {
				_, err = d.boolean()
			}
			if err != nil {
				return inspectCall{}, err
			}
			inputs = append(inputs, input{obj: id})
		default:
			return inspectCall{}, fmt.Errorf("unknown call arg %d", tag)
		}
	}

	u16 := func() (uint16, error) {
		b, err := d.take(2)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(b), nil
	}
	readArg := func() (input, error) {
		tag, err := d.u8()
		if err != nil {
			return input{}, err
		}
		idx, err := u16()
		if err != nil {
			return input{}, err
		}
		if tag == 1 && int(idx) < len(inputs) {
			return inputs[idx], nil
		}
		return input{}, nil
	}

	var last inspectCall
	cmds, err := d.uleb128()
	if err != nil {
		return inspectCall{}, err
	}
	for i := uint64(0); i < cmds; i++ {
		tag, err := d.u8()
		if err != nil {
			return inspectCall{}, err
		}
		switch tag {
		case 0:
			if _, err := d.address(); err != nil {
				return inspectCall{}, err
			}
			call := inspectCall{}
			if call.Module, err = d.str(); err != nil {
				return inspectCall{}, err
			}
			if call.Function, err = d.str(); err != nil {
				return inspectCall{}, err
			}
			if _, err := d.uleb128(); err != nil {
				return inspectCall{}, err
			}
			nargs, err := d.uleb128()
			if err != nil {
				return inspectCall{}, err
			}
			for j := uint64(0); j < nargs; j++ {
				in, err := readArg()
				if err != nil {
					return inspectCall{}, err
				}
				call.Pure = append(call.Pure, in.pure)
				if in.pure == nil {
					call.Objects = append(call.Objects, in.obj)
				}
			}
			last = call
		case 1:
			nobj, err := d.uleb128()
			if err != nil {
				return inspectCall{}, err
			}
			for j := uint64(0); j <= nobj; j++ {
				if _, err := readArg(); err != nil {
					return inspectCall{}, err
				}
			}
		default:
			return inspectCall{}, fmt.Errorf("unknown command %d", tag)
		}
	}
	return last, nil
}

func testChainConfig() config.ChainConfig {
	return config.ChainConfig{
		RequestTimeout:  time.Second,
		ScanWindow:      100,
		FinalityTimeout: 200 * time.Millisecond,
		PollInterval:    10 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, n *fakeNode) *Client {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("sui", &suiService{n: n}))
	require.NoError(t, server.RegisterName("suix", &suixService{n: n}))
	c := NewClient(rpc.DialInProc(server), testChainConfig())
	t.Cleanup(func() {
		c.Close()
		server.Stop()
	})
	return c
}

func newTestSDK(t *testing.T) (*SDK, *fakeNode) {
	t.Helper()
	n := newFakeNode()
	return NewSDK(newTestClient(t, n), testDeployment()), n
}

func rvU64(v uint64) ReturnValue { return ReturnValue{Bytes: EncodeU64(v), Type: "u64"} }

func rvU8(v uint8) ReturnValue { return ReturnValue{Bytes: []byte{v}, Type: "u8"} }

func rvBool(v bool) ReturnValue {
	if v {
		return ReturnValue{Bytes: []byte{1}, Type: "bool"}
	}
	return ReturnValue{Bytes: []byte{0}, Type: "bool"}
}

func rvString(s string) ReturnValue {
	var e bcsEncoder
	e.str(s)
	return ReturnValue{Bytes: e.bytes(), Type: "0x1::string::String"}
}

func rvAddress(a Address) ReturnValue {
	return ReturnValue{Bytes: append([]byte(nil), a[:]...), Type: "0x2::object::ID"}
}

func rvAddresses(in ...Address) ReturnValue {
	var e bcsEncoder
	e.uleb128(uint64(len(in)))
	for _, a := range in {
		e.address(a)
	}
	return ReturnValue{Bytes: e.bytes(), Type: "vector<0x2::object::ID>"}
}

func returns(values ...ReturnValue) inspectFunc {
	return func(inspectCall) ([]ReturnValue, string) { return values, "" }
}

func aborts(module string, code int) inspectFunc {
	return func(call inspectCall) ([]ReturnValue, string) {
		return nil, moveAbort(module, call.Function, code)
	}
}
