package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ariya-backend/config"
	"ariya-backend/contracts"
	"ariya-backend/flows"
	"ariya-backend/models"
)

var (
	testEvent     = contracts.MustParseAddress("0x697a9349dd71d46b88219c0837b0e8ef52cc8c8624f96a5d52bc92a60dc0e1f5")
	testWallet    = contracts.MustParseAddress("0x5b0a5b6e12a6eed5f4b263d75cde60ce4d6c52b9bfb08f8e5447073e37d2e813")
	testOrganizer = contracts.MustParseAddress("0x0c")
	testProfile   = contracts.MustParseAddress("0xfeed")
	testSub       = contracts.MustParseAddress("0x5ab")
)

var testObjectIDs = config.ObjectIDs{
	PackageID:              "0xa11a",
	EventRegistryID:        "0xe1",
	RegistrationRegistryID: "0xe2",
	AttendanceRegistryID:   "0xe3",
	AirdropRegistryID:      "0xe4",
	NFTRegistryID:          "0xe5",
	RatingRegistryID:       "0xe6",
	ProfileRegistryID:      "0xe7",
	CommunityRegistryID:    "0xe8",
	SubscriptionRegistryID: "0xe9",
	SubscriptionConfigID:   "0xea",
	PlatformTreasuryID:     "0xeb",
}

var errNodeDown = errors.New("node unavailable")

// fakeNode is a Sui full node kept in memory. Every dev-inspect call gets the
// same canned answer.
type fakeNode struct {
	mu      sync.Mutex
	objects map[contracts.Address]contracts.ObjectResponse
	blocks  map[string]contracts.TransactionBlock
	txs     map[string][]contracts.TransactionBlock
	coins   map[contracts.Address][]contracts.Coin
	values  []contracts.ReturnValue
	abort   string
	down    bool
}

func newFakeNode() *fakeNode {
	n := &fakeNode{
		objects: make(map[contracts.Address]contracts.ObjectResponse),
		blocks:  make(map[string]contracts.TransactionBlock),
		txs:     make(map[string][]contracts.TransactionBlock),
		coins:   make(map[contracts.Address][]contracts.Coin),
	}
	for _, id := range []string{testObjectIDs.EventRegistryID, testObjectIDs.RegistrationRegistryID,
		testObjectIDs.AttendanceRegistryID, testObjectIDs.AirdropRegistryID, testObjectIDs.NFTRegistryID,
		testObjectIDs.RatingRegistryID, testObjectIDs.ProfileRegistryID, testObjectIDs.CommunityRegistryID,
		testObjectIDs.SubscriptionConfigID, testObjectIDs.PlatformTreasuryID} {
		n.addShared(contracts.MustParseAddress(id), "registry::Registry", nil)
	}
	return n
}

func fields(v map[string]any) contracts.MoveFields {
	out := make(contracts.MoveFields, len(v))
	for k, field := range v {
		b, err := json.Marshal(field)
		if err != nil {
			panic(err)
		}
		out[k] = b
	}
	return out
}

func (n *fakeNode) addShared(id contracts.Address, typ string, f map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	full := testObjectIDs.PackageID + "::" + typ
	n.objects[id] = contracts.ObjectResponse{Data: &contracts.ObjectData{
		ObjectID: id.String(),
		Version:  7,
		Digest:   "11111111111111111111111111111111",
		Type:     full,
		Owner:    &contracts.Owner{Shared: &contracts.SharedOwner{InitialSharedVersion: 3}},
		Content:  &contracts.MoveContent{DataType: "moveObject", Type: full, Fields: fields(f)},
	}}
}

func (n *fakeNode) addEvent(id contracts.Address, name string) {
	n.addShared(id, "event_management::Event", map[string]any{
		"name":       name,
		"start_time": "1700000000000",
		"end_time":   "1700003600000",
		"state":      1,
		"organizer":  testOrganizer.String(),
		"capacity":   "100",
	})
}

func (n *fakeNode) addBlock(tx contracts.TransactionBlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocks[tx.Digest] = tx
}

// addTx records a transaction that called module::function.
func (n *fakeNode) addTx(module, function string, tx contracts.TransactionBlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := module + "::" + function
	n.txs[key] = append([]contracts.TransactionBlock{tx}, n.txs[key]...)
}

func (n *fakeNode) returns(values ...contracts.ReturnValue) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.values, n.abort = values, ""
}

func (n *fakeNode) aborts(module string, code int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.values = nil
	n.abort = fmt.Sprintf(`MoveAbort(MoveLocation { module: ModuleId { address: a11a, name: Identifier("%s") }, function: 4, instruction: 9, function_name: Some("view") }, %d) in command 0`, module, code)
}

func (n *fakeNode) setDown(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down = v
}

func (n *fakeNode) check() error {
	if n.down {
		return errNodeDown
	}
	return nil
}

type suiService struct{ n *fakeNode }

func (s *suiService) GetObject(id string, _ contracts.ObjectDataOptions) (*contracts.ObjectResponse, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	a, err := contracts.ParseAddress(id)
	if err != nil {
		return nil, err
	}
	obj, ok := s.n.objects[a]
	if !ok {
		return &contracts.ObjectResponse{Error: &contracts.ObjectError{Code: "notExists", ObjectID: id}}, nil
	}
	return &obj, nil
}

func (s *suiService) GetTransactionBlock(digest string, _ contracts.TransactionBlockOptions) (*contracts.TransactionBlock, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	tx, ok := s.n.blocks[digest]
	if !ok {
		return nil, fmt.Errorf("could not find the referenced transaction [%s]", digest)
	}
	return &tx, nil
}

func (s *suiService) DevInspectTransactionBlock(_ string, _ string, _ *string, _ *string) (*contracts.DevInspectResults, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	if s.n.abort != "" {
		return &contracts.DevInspectResults{
			Effects: &contracts.TransactionEffects{Status: contracts.ExecutionStatus{Status: "failure", Error: s.n.abort}},
			Error:   s.n.abort,
		}, nil
	}
	return &contracts.DevInspectResults{
		Effects: &contracts.TransactionEffects{Status: contracts.ExecutionStatus{Status: "success"}},
		Results: []contracts.ExecutionResult{{ReturnValues: s.n.values}},
	}, nil
}

type suixService struct{ n *fakeNode }

func (s *suixService) QueryTransactionBlocks(q contracts.TransactionBlockQuery, _ *string, _ int, _ bool) (*contracts.TransactionBlockPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	page := &contracts.TransactionBlockPage{Data: []contracts.TransactionBlock{}}
	if f := q.Filter.MoveFunction; f != nil {
		page.Data = append(page.Data, s.n.txs[f.Module+"::"+f.Function]...)
	}
	return page, nil
}

func (s *suixService) GetOwnedObjects(_ string, _ contracts.OwnedObjectsQuery, _ *string, _ int) (*contracts.OwnedObjectsPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	return &contracts.OwnedObjectsPage{Data: []contracts.ObjectResponse{}}, nil
}

func (s *suixService) GetCoins(owner string, _ string, _ *string, _ int) (*contracts.CoinPage, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	if err := s.n.check(); err != nil {
		return nil, err
	}
	a, err := contracts.ParseAddress(owner)
	if err != nil {
		return nil, err
	}
	return &contracts.CoinPage{Data: append([]contracts.Coin{}, s.n.coins[a]...)}, nil
}

func rvU64(v uint64) contracts.ReturnValue {
	return contracts.ReturnValue{Bytes: contracts.EncodeU64(v), Type: "u64"}
}

func rvBool(v bool) contracts.ReturnValue {
	b := byte(0)
	if v {
		b = 1
	}
	return contracts.ReturnValue{Bytes: []byte{b}, Type: "bool"}
}

// fakeStore is an in-memory check-in log.
type fakeStore struct {
	mu      sync.Mutex
	records []models.CheckinRecord
	err     error
}

func (s *fakeStore) Record(_ context.Context, rec models.CheckinRecord) (models.CheckinRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.CheckinRecord{}, s.err
	}
	for _, r := range s.records {
		if r.TxDigest == rec.TxDigest && r.Direction == rec.Direction {
			return r, nil
		}
	}
	s.records = append([]models.CheckinRecord{rec}, s.records...)
	return rec, nil
}

func (s *fakeStore) filter(keep func(models.CheckinRecord) bool) ([]models.CheckinRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []models.CheckinRecord{}
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByEvent(_ context.Context, eventID string) ([]models.CheckinRecord, error) {
	return s.filter(func(r models.CheckinRecord) bool { return r.EventID == eventID })
}

func (s *fakeStore) ListByWallet(_ context.Context, wallet string) ([]models.CheckinRecord, error) {
	return s.filter(func(r models.CheckinRecord) bool { return r.Wallet == wallet })
}

func (s *fakeStore) Latest(_ context.Context, eventID, wallet string) (*models.CheckinRecord, error) {
	recs, err := s.filter(func(r models.CheckinRecord) bool { return r.EventID == eventID && r.Wallet == wallet })
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (s *fakeStore) CountByDirection(_ context.Context, eventID string) (int, int, error) {
	recs, err := s.filter(func(r models.CheckinRecord) bool { return r.EventID == eventID })
	if err != nil {
		return 0, 0, err
	}
	var in, out int
	for _, r := range recs {
		if r.Direction == models.DirectionIn {
			in++
		} else {
			out++
		}
	}
	return in, out, nil
}

type testEnv struct {
	node   *fakeNode
	store  *fakeStore
	router *gin.Engine
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	n := newFakeNode()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("sui", &suiService{n: n}))
	require.NoError(t, server.RegisterName("suix", &suixService{n: n}))
	client := contracts.NewClient(rpc.DialInProc(server), config.ChainConfig{
		RequestTimeout:  time.Second,
		ScanWindow:      50,
		FinalityTimeout: 100 * time.Millisecond,
		PollInterval:    10 * time.Millisecond,
	})
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	d, err := contracts.NewDeployment(testObjectIDs)
	require.NoError(t, err)
	sdk := contracts.NewSDK(client, d)

	env := &testEnv{node: n, store: &fakeStore{}, now: time.Now()}
	clock := flows.WithClock(func() time.Time { return env.now })
	registration := flows.NewRegistrationFlow(sdk.Identity, sdk.Events, client, clock)
	checkIn := flows.NewCheckInFlow(sdk.Attendance, client, env.store, clock)

	env.router = gin.New()
	RegisterRoutes(env.router.Group("/api/v1"), Handlers{
		Events:        NewEventHandler(sdk),
		Users:         NewUserHandler(sdk),
		Registrations: NewRegistrationHandler(sdk, registration, client),
		Checkins:      NewCheckinHandler(sdk, checkIn, env.store),
		Airdrops:      NewAirdropHandler(sdk),
		Communities:   NewCommunityHandler(sdk),
		Subscriptions: NewSubscriptionHandler(sdk),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.router, method, path, body)
}

func serve(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// txCalls returns the module::function targets of a built transaction.
func txCalls(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var out struct {
		Transaction contracts.Transaction `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	var calls []string
	for _, c := range out.Transaction.Calls() {
		calls = append(calls, c.Module+"::"+c.Function)
	}
	return calls
}
