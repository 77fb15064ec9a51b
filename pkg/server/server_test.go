package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
)

func newTestServer(t *testing.T, store core.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(store, WithPingInterval(50*time.Millisecond)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(memory.Config{}))
	resp := request(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RoomLifecycle(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(memory.Config{}))
	room := srv.URL + "/rooms/k1"

	resp := request(t, http.MethodGet, room, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap core.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.False(t, snap.Exists)

	resp = request(t, http.MethodPut, room, "application/json", `{"calendar":{"2024-06-01":{"tasks":[],"mood":"happy","diary":""}},"vision":[]}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodPatch, room, MergePatchType, `{"calendar":{"2024-06-02":{"tasks":[],"mood":"sad","diary":""}}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodPatch, room, JSONPatchType, `[{"op":"add","path":"/vision/-","value":{"url":"u","caption":"c"}}]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodGet, room, "", "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	doc, err := core.DecodeDocument(snap.Data)
	require.NoError(t, err)
	assert.Len(t, doc.Calendar, 2)
	assert.Len(t, doc.Vision, 1)
	assert.EqualValues(t, 3, snap.Version)
}

func TestServer_Errors(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(memory.Config{}))
	room := srv.URL + "/rooms/k1"

	resp := request(t, http.MethodPut, room, "application/json", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = request(t, http.MethodPatch, room, "text/plain", `{}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = request(t, http.MethodPatch, room, JSONPatchType, `[{"op":"remove","path":"/vision/3"}]`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

type plainStore struct{ core.Store }

func TestServer_UnsupportedCapabilities(t *testing.T) {
	srv := newTestServer(t, plainStore{memory.NewStore(memory.Config{})})

	resp := request(t, http.MethodPatch, srv.URL+"/rooms/k1", JSONPatchType, `[]`)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/rooms/k1/watch", "", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp = request(t, http.MethodGet, srv.URL+"/state", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_State(t *testing.T) {
	srv := newTestServer(t, memory.NewStore(memory.Config{}))
	resp := request(t, http.MethodGet, srv.URL+"/state", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state memory.StoreState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Zero(t, state.Documents)
}

func TestServer_WatchStreamsSnapshots(t *testing.T) {
	store := memory.NewStore(memory.Config{})
	srv := newTestServer(t, store)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/k1/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var snap core.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.False(t, snap.Exists)

	require.NoError(t, store.Write(context.Background(), "k1", []byte(`{"vision":[]}`), core.WriteOptions{Merge: true}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&snap))
	assert.True(t, snap.Exists)
	assert.EqualValues(t, 1, snap.Version)
	assert.True(t, bytes.Contains(snap.Data, []byte("vision")))
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		core.ErrReadOnly:     http.StatusForbidden,
		core.ErrConflict:     http.StatusConflict,
		core.ErrNotPatchable: http.StatusNotImplemented,
		core.ErrEmptyRoom:    http.StatusBadRequest,
		assert.AnError:       http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}
