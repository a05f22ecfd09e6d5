// internal/dashboard/server_test.go
package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/metrics"
	"github.com/tamzrod/uniform-watch/internal/poller"
	"github.com/tamzrod/uniform-watch/internal/roster"
	"github.com/tamzrod/uniform-watch/internal/session"
	"github.com/tamzrod/uniform-watch/internal/stream"
)

// ---- fakes ----

type fakeStatus struct {
	mu    sync.Mutex
	state poller.State
	subs  map[int]func(poller.State)
	next  int
}

func newFakeStatus(s poller.State) *fakeStatus {
	return &fakeStatus{state: s, subs: make(map[int]func(poller.State))}
}

func (f *fakeStatus) Snapshot() poller.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStatus) Subscribe(fn func(poller.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeStatus) set(s poller.State) {
	f.mu.Lock()
	f.state = s
	subs := make([]func(poller.State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeStatus) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeFrames struct {
	state  stream.State
	latest []byte
	ch     chan []byte
}

func (f *fakeFrames) Snapshot() stream.State      { return f.state }
func (f *fakeFrames) LatestFrame() ([]byte, bool) { return f.latest, f.latest != nil }
func (f *fakeFrames) SubscribeFrames(int) (<-chan []byte, func()) {
	return f.ch, func() {}
}

var connectedAllTrue = poller.State{
	Status:       detection.Status{ShirtDetected: true, PantsDetected: true, UniformDetected: true},
	Connectivity: detection.Connected(),
	UpdatedAt:    time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
	CheckedAt:    time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
}

func newTestServer(t *testing.T, opts *Options) Server {
	t.Helper()
	opts.DisableReqLogs = true
	srv, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func signedIn(t *testing.T) (session.Context, *session.StaticProvider) {
	t.Helper()
	p := session.NewStaticProvider(&session.User{ID: "u1", Name: "Front Desk", Email: "desk@school.test"})
	b, err := session.NewBroker(p)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b.Context(), p
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestNewServer_RequiresPoller(t *testing.T) {
	_, err := NewServer(&Options{})
	assert.Error(t, err)
}

func TestStatus_Loading(t *testing.T) {
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{Loading: true})})

	rec := doJSON(t, srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Loading...", v["headline"])
	assert.Equal(t, true, v["loading"])
	assert.NotContains(t, v, "updated_at")
}

func TestStatus_StaleShowsReasonAndRetainedFlags(t *testing.T) {
	s := connectedAllTrue
	s.Connectivity = detection.DisconnectedBy(&detection.NetworkError{Op: "fetch status", Err: context.DeadlineExceeded})
	s.ConsecutiveFailures = 1
	srv := newTestServer(t, &Options{Poller: newFakeStatus(s)})

	rec := doJSON(t, srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var v statusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Detection server did not answer in time", v.Headline)
	assert.True(t, v.Stale)
	assert.True(t, v.Status.UniformDetected)
	assert.Equal(t, detection.LinkDisconnected, v.Connectivity.Link)
	assert.Equal(t, 1, v.ConsecutiveFailures)
}

func TestStreamState(t *testing.T) {
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{Loading: true})})
	rec := doJSON(t, srv, http.MethodGet, "/api/stream", "")
	assert.JSONEq(t, `{"enabled":false,"connectivity":{"link":"unknown"},"frames":0,"reconnects":0}`, rec.Body.String())

	frames := &fakeFrames{state: stream.State{Connectivity: detection.Connected(), Frames: 12}}
	srv = newTestServer(t, &Options{Poller: newFakeStatus(poller.State{Loading: true}), Stream: frames})
	rec = doJSON(t, srv, http.MethodGet, "/api/stream", "")

	var v streamView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Enabled)
	assert.Equal(t, uint64(12), v.Frames)
	assert.True(t, v.Connectivity.IsConnected())
}

func TestHome(t *testing.T) {
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{Loading: true})})
	rec := doJSON(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/video_feed")
}

func TestSession(t *testing.T) {
	b, err := session.NewBroker(session.NewStaticProvider(nil))
	require.NoError(t, err)
	defer b.Close()

	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{}), Session: b.Context()})
	rec := doJSON(t, srv, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sc, _ := signedIn(t)
	srv = newTestServer(t, &Options{Poller: newFakeStatus(poller.State{}), Session: sc})
	rec = doJSON(t, srv, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "desk@school.test")
}

func TestStudents(t *testing.T) {
	store, err := roster.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	sc, provider := signedIn(t)
	srv := newTestServer(t, &Options{
		Poller:  newFakeStatus(poller.State{}),
		Session: sc,
		Roster:  roster.NewService(store),
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/students",
		`{"full_name":"Rohit Gakhare","class":"A","contact":"9637585940","address":"Karanja"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var st roster.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.NotEmpty(t, st.ID)

	rec = doJSON(t, srv, http.MethodPost, "/api/students",
		`{"full_name":"X","class":"Z","contact":"12","address":"a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "class")
	assert.Contains(t, fields, "contact")

	rec = doJSON(t, srv, http.MethodGet, "/api/students?class=A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []roster.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/students/"+st.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/students/"+st.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/students/"+st.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Signing out closes the roster.
	provider.Set(nil)
	rec = doJSON(t, srv, http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudents_RosterDisabled(t *testing.T) {
	sc, _ := signedIn(t)
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{}), Session: sc})

	rec := doJSON(t, srv, http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObservePoll(nil, time.Millisecond)
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{}), Metrics: m})

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uniformwatch_polls_ok_total 1")

	srv = newTestServer(t, &Options{Poller: newFakeStatus(poller.State{})})
	rec = doJSON(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebsocket_PushesStates(t *testing.T) {
	status := newFakeStatus(poller.State{Loading: true})
	m := metrics.New()
	srv := newTestServer(t, &Options{Poller: status, Metrics: m})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readView := func() statusView {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var v statusView
		require.NoError(t, json.Unmarshal(msg, &v))
		return v
	}

	// Current snapshot on connect.
	assert.Equal(t, "Loading...", readView().Headline)
	assert.Equal(t, int64(1), m.WebsocketClients.Load())

	status.set(connectedAllTrue)
	v := readView()
	assert.Equal(t, "Uniform Detected", v.Headline)
	assert.False(t, v.Loading)
}

func TestStop_ReleasesPollerSubscription(t *testing.T) {
	status := newFakeStatus(poller.State{})
	srv, err := NewServer(&Options{Poller: status, DisableReqLogs: true})
	require.NoError(t, err)
	require.Equal(t, 1, status.subscribers())

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
	assert.Equal(t, 0, status.subscribers())
}

const partHeader = "--frame\r\nContent-Type: image/jpeg\r\n\r\n"

// readFeed returns the first n bytes of the first part's body.
func readFeed(t *testing.T, url string, n int) []byte {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/x-mixed-replace", mediaType)
	require.Equal(t, "frame", params["boundary"])

	buf := make([]byte, len(partHeader)+n)
	_, err = io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	require.Equal(t, partHeader, string(buf[:len(partHeader)]))
	return buf[len(partHeader):]
}

func TestVideoFeed_BlankWithoutStream(t *testing.T) {
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{})})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	frame := readFeed(t, ts.URL+"/video_feed", 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, frame, "JPEG SOI marker")
}

func TestVideoFeed_RelaysFrames(t *testing.T) {
	frames := &fakeFrames{latest: []byte("FRAME-1"), ch: make(chan []byte, 1)}
	srv := newTestServer(t, &Options{Poller: newFakeStatus(poller.State{}), Stream: frames})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	frames.ch <- []byte("FRAME-2")
	got := readFeed(t, ts.URL+"/video_feed", len("FRAME-1\r\n")+len(partHeader)+len("FRAME-2"))
	assert.Equal(t, "FRAME-1\r\n"+partHeader+"FRAME-2", string(got))
}
