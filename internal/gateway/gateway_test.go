// internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"smartstore-assistant/internal/common/config"
	"smartstore-assistant/internal/common/database"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// sheetStub records every request the gateway sends and serves canned
// snapshot bodies.
type sheetStub struct {
	mu        sync.Mutex
	getBody   string
	getStatus int
	posts     []recordedPost
}

type recordedPost struct {
	contentType string
	body        string
}

func (s *sheetStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			if s.getStatus != 0 && s.getStatus != http.StatusOK {
				w.WriteHeader(s.getStatus)
				return
			}
			io.WriteString(w, s.getBody)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			s.posts = append(s.posts, recordedPost{
				contentType: r.Header.Get("Content-Type"),
				body:        string(body),
			})
			io.WriteString(w, `{"result":"ok"}`)
		}
	}
}

func (s *sheetStub) setBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getBody = body
}

func (s *sheetStub) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getStatus = status
}

func (s *sheetStub) lastPost(t *testing.T) recordedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.posts)
	return s.posts[len(s.posts)-1]
}

func (s *sheetStub) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

const fullSnapshotBody = `{
	"branches": ["서울지부", "부산지부"],
	"salespersons": [
		{"branchName": "서울지부", "name": "김판매", "phone": 1012345678, "password": 1234},
		{"branchName": "부산지부", "name": "이영업", "phone": "010-9999-8888", "password": "pw2"}
	],
	"history": [
		{"id": 1700000000000, "branchName": "서울지부", "branchRep": "김판매", "salesPassword": 1234,
		 "branchPhone": "010-1234-5678", "businessName": "한빛상회", "repName": "홍길동",
		 "phoneNumber": "010-2222-3333", "address": "서울시", "storeId": "hanbit", "storePw": "sp1",
		 "date": "2026. 08. 01. 10:00:00"}
	],
	"branchAuth": [
		{"branchName": "서울지부", "password": "seoul99"}
	]
}`

func newTestGateway(t *testing.T, endpoint string, redisClient *database.RedisClient) *Gateway {
	gw, err := New(
		config.SheetConfig{Endpoint: endpoint, RequestTimeout: 2000},
		config.SyncConfig{RefreshDelay: 2000, SubmitLatch: 1500, CacheTTL: 60000},
		redisClient,
		logger.NewTestLogger(t),
	)
	require.NoError(t, err)
	t.Cleanup(gw.Close)
	return gw
}

// ==========================
// Snapshot Fetch Tests
// ==========================

func TestFetchSnapshot_CoercesNumericCells(t *testing.T) {
	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	require.NoError(t, gw.FetchSnapshot(context.Background()))

	snap := gw.Snapshot()
	assert.Equal(t, []string{"서울지부", "부산지부"}, snap.Branches)
	require.Len(t, snap.Salespersons, 2)
	assert.Equal(t, "1012345678", snap.Salespersons[0].Phone)
	assert.Equal(t, "1234", snap.Salespersons[0].Password)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "1700000000000", snap.History[0].ID)
	assert.Equal(t, "1234", snap.History[0].SalesPassword)
	require.Len(t, snap.BranchAuth, 1)
	assert.Equal(t, "seoul99", snap.BranchAuth[0].Password)
}

func TestFetchSnapshot_AbsentKeysLeaveDataUnchanged(t *testing.T) {
	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	require.NoError(t, gw.FetchSnapshot(context.Background()))

	// Second response only carries history: everything else must survive.
	stub.setBody(`{"history": []}`)
	require.NoError(t, gw.FetchSnapshot(context.Background()))

	snap := gw.Snapshot()
	assert.Len(t, snap.Branches, 2)
	assert.Len(t, snap.Salespersons, 2)
	assert.Len(t, snap.BranchAuth, 1)
	assert.Empty(t, snap.History)
}

func TestFetchSnapshot_FailureKeepsPreviousSnapshot(t *testing.T) {
	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	require.NoError(t, gw.FetchSnapshot(context.Background()))

	stub.setStatus(http.StatusInternalServerError)
	err := gw.FetchSnapshot(context.Background())
	require.Error(t, err)

	snap := gw.Snapshot()
	assert.Len(t, snap.Branches, 2)
	assert.Len(t, snap.Salespersons, 2)
}

func TestFetchSnapshot_RejectsMalformedShape(t *testing.T) {
	stub := &sheetStub{getBody: `{"branches": "not-an-array"}`}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	err := gw.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.Empty(t, gw.Snapshot().Branches)
}

func TestScheduleRefresh_FetchesAfterDelay(t *testing.T) {
	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	gw.ScheduleRefresh(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		return len(gw.Snapshot().Branches) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

// ==========================
// Write Path Tests
// ==========================

func TestSubmitRecord_PostsPlainTextJSON(t *testing.T) {
	stub := &sheetStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	record := models.ApplicationRecord{
		ID:           "1724900000000",
		BranchName:   "서울지부",
		BranchRep:    "김판매",
		BusinessName: "한빛상회",
		Date:         "2026. 08. 29. 14:03:05",
	}
	require.NoError(t, gw.SubmitRecord(context.Background(), record, true))

	post := stub.lastPost(t)
	assert.Equal(t, "text/plain;charset=utf-8", post.contentType)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(post.body), &payload))
	assert.Equal(t, "서울지부", payload["branchName"])
	assert.Equal(t, "2026. 08. 29. 14:03:05", payload["date"])
	assert.Equal(t, true, payload["isNewSalesperson"])
	// The local id stays local.
	assert.NotContains(t, payload, "id")
}

func TestSubmitRecord_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	err := gw.SubmitRecord(context.Background(), models.ApplicationRecord{}, false)
	require.Error(t, err)
}

func TestRegisterBranchPassword_PostsTypedPayload(t *testing.T) {
	stub := &sheetStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, nil)
	require.NoError(t, gw.RegisterBranchPassword(context.Background(), "서울지부", "seoul99"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stub.lastPost(t).body), &payload))
	assert.Equal(t, "registerBranchPassword", payload["type"])
	assert.Equal(t, "서울지부", payload["branchName"])
	assert.Equal(t, "seoul99", payload["password"])
	assert.Equal(t, 1, stub.postCount())
}

// ==========================
// Cache Tests
// ==========================

func TestFetchSnapshot_RestoresFromCacheWhenRemoteIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	defer redisClient.Close()

	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())

	gw := newTestGateway(t, srv.URL, redisClient)
	require.NoError(t, gw.FetchSnapshot(context.Background()))
	srv.Close()

	// A fresh process with the same cache: the fetch fails but the
	// last-known snapshot comes back.
	fresh := newTestGateway(t, srv.URL, redisClient)
	err := fresh.FetchSnapshot(context.Background())
	require.Error(t, err)

	snap := fresh.Snapshot()
	assert.Len(t, snap.Branches, 2)
	assert.Len(t, snap.Salespersons, 2)
}

func TestFetchSnapshot_CacheNeverOverwritesLiveData(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	defer redisClient.Close()

	stub := &sheetStub{getBody: fullSnapshotBody}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, redisClient)
	require.NoError(t, gw.FetchSnapshot(context.Background()))

	// Stale cache entry planted after the successful fetch.
	stale, _ := json.Marshal(models.Snapshot{Branches: []string{"옛지부"}})
	require.NoError(t, mr.Set(snapshotCacheKey, string(stale)))

	stub.setStatus(http.StatusInternalServerError)
	_ = gw.FetchSnapshot(context.Background())

	assert.Equal(t, []string{"서울지부", "부산지부"}, gw.Snapshot().Branches)
}
