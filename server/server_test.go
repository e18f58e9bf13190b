package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/config"
	"github.com/pdrpinto/gridastar/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	cfg := config.Config{
		GridRows:     3,
		GridCols:     3,
		MaxGridCells: 16,
		StepDelay:    time.Millisecond,
		PathDelay:    time.Millisecond,
		StaticDir:    t.TempDir(),
	}
	manager := session.NewManager(cfg.GridRows, cfg.GridCols, gridastar.LazyDuplicates, session.WithMaxCells(cfg.MaxGridCells))
	ts := httptest.NewServer(New(cfg, manager))
	t.Cleanup(ts.Close)
	return ts, manager
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, 3, created.Rows)
	assert.Equal(t, 3, created.Cols)
	return created.ID
}

func playURL(ts *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + id + "/play"
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	con, _, err := websocket.DefaultDialer.Dial(playURL(ts, id), nil)
	require.NoError(t, err)
	t.Cleanup(func() { con.Close() })
	return con
}

func read(t *testing.T, con *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, con.SetReadDeadline(time.Now().Add(5*time.Second)))
	var message ServerMessage
	require.NoError(t, con.ReadJSON(&message))
	return message
}

func readType(t *testing.T, con *websocket.Conn, kind string) ServerMessage {
	t.Helper()
	message := read(t, con)
	require.Equal(t, kind, message.Type, "message %+v", message)
	return message
}

func send(t *testing.T, con *websocket.Conn, message ClientMessage) {
	t.Helper()
	require.NoError(t, con.WriteJSON(message))
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	ts, manager := newTestServer(t)
	id := createSession(t, ts)
	assert.Equal(t, 1, manager.Len())

	resp, err := http.Get(ts.URL + "/sessions/" + id)
	require.NoError(t, err)
	var view GridView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, []string{"...", "...", "..."}, view.Cells)
	assert.Nil(t, view.Start)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, manager.Len())
}

func TestSessionErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"malformed id", http.MethodGet, "/sessions/not-a-uuid", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/sessions/" + uuid.NewString(), http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/sessions/" + uuid.NewString(), http.StatusNotFound},
		{"play unknown", http.MethodGet, "/sessions/" + uuid.NewString() + "/play", http.StatusNotFound},
		{"no index", http.MethodGet, "/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestPlayRun(t *testing.T) {
	ts, _ := newTestServer(t)
	con := dial(t, ts, createSession(t, ts))

	initial := readType(t, con, TypeGrid)
	assert.Equal(t, session.Idle, initial.Grid.Mode)

	send(t, con, ClientMessage{Op: OpRun})
	errMessage := readType(t, con, TypeError)
	assert.Contains(t, errMessage.Error, "start is not placed")

	send(t, con, ClientMessage{Op: OpSelect})
	assert.Equal(t, session.Selecting, readType(t, con, TypeGrid).Grid.Mode)
	send(t, con, ClientMessage{Op: OpClick, Row: 0, Col: 0})
	readType(t, con, TypeGrid)
	send(t, con, ClientMessage{Op: OpClick, Row: 2, Col: 2})
	assert.Equal(t, session.Idle, readType(t, con, TypeGrid).Grid.Mode)

	send(t, con, ClientMessage{Op: OpRun})
	assert.Equal(t, session.Running, readType(t, con, TypeGrid).Grid.Mode)

	var visited, path []CellView
	var completed *EventView
	for completed == nil {
		message := readType(t, con, TypeEvent)
		switch message.Event.Kind {
		case gridastar.CellStateChanged:
			cell := CellView{Row: message.Event.Row, Col: message.Event.Col}
			if message.Event.State == gridastar.Visited {
				visited = append(visited, cell)
			} else {
				path = append(path, cell)
			}
		case gridastar.SearchCompleted:
			completed = message.Event
		}
	}
	assert.Equal(t, []CellView{{0, 1}, {0, 2}, {1, 2}}, visited)
	assert.Equal(t, []CellView{{0, 1}, {0, 2}, {1, 2}}, path)
	assert.Equal(t, gridastar.PathFound, completed.Outcome)
	assert.Equal(t, []CellView{{0, 1}, {0, 2}, {1, 2}, {2, 2}}, completed.Path)

	final := readType(t, con, TypeGrid)
	assert.Equal(t, session.Idle, final.Grid.Mode)
	assert.Equal(t, gridastar.PathFound, final.Grid.Outcome)
	assert.Equal(t, 4, final.Grid.Cost)
	assert.Equal(t, []string{"S**", "..*", "..E"}, final.Grid.Cells)
}

func TestPlayManualStep(t *testing.T) {
	ts, _ := newTestServer(t)
	con := dial(t, ts, createSession(t, ts))
	readType(t, con, TypeGrid)

	send(t, con, ClientMessage{Op: OpLayout, Layout: "SE.\n...\n"})
	layout := readType(t, con, TypeGrid)
	assert.Equal(t, 2, layout.Grid.Rows)

	// the first step begins the run and expands the start
	send(t, con, ClientMessage{Op: OpStep})
	assert.Equal(t, session.Running, readType(t, con, TypeGrid).Grid.Mode)
	expanded := readType(t, con, TypeEvent)
	assert.Equal(t, gridastar.NodeExpanded, expanded.Event.Kind)
	assert.Equal(t, 1, expanded.Event.Step)

	// edits are refused mid-run
	send(t, con, ClientMessage{Op: OpWall, Row: 1, Col: 1})
	assert.Equal(t, session.ErrRunActive.Error(), readType(t, con, TypeError).Error)

	send(t, con, ClientMessage{Op: OpStep})
	completed := readType(t, con, TypeEvent)
	assert.Equal(t, gridastar.SearchCompleted, completed.Event.Kind)
	assert.Equal(t, []CellView{{0, 1}}, completed.Event.Path)
	assert.Equal(t, session.Idle, readType(t, con, TypeGrid).Grid.Mode)
}

func TestPlayRejectsBadCommands(t *testing.T) {
	ts, _ := newTestServer(t)
	con := dial(t, ts, createSession(t, ts))
	readType(t, con, TypeGrid)

	send(t, con, ClientMessage{Op: "teleport"})
	assert.Contains(t, readType(t, con, TypeError).Error, "unknown op")

	send(t, con, ClientMessage{Op: OpSpeed, DelayMs: -5})
	assert.Contains(t, readType(t, con, TypeError).Error, "negative delay")

	require.NoError(t, con.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Contains(t, readType(t, con, TypeError).Error, "malformed message")

	send(t, con, ClientMessage{Op: OpStart, Row: 9, Col: 9})
	assert.Contains(t, readType(t, con, TypeError).Error, "out of bounds")

	// the connection survives rejected commands
	send(t, con, ClientMessage{Op: OpGrid})
	readType(t, con, TypeGrid)
}

func TestPlayResetAndRandomize(t *testing.T) {
	ts, _ := newTestServer(t)
	con := dial(t, ts, createSession(t, ts))
	readType(t, con, TypeGrid)

	send(t, con, ClientMessage{Op: OpStart, Row: 0, Col: 0})
	readType(t, con, TypeGrid)
	send(t, con, ClientMessage{Op: OpEnd, Row: 2, Col: 2})
	readType(t, con, TypeGrid)
	send(t, con, ClientMessage{Op: OpRandomize, Seed: 3, Clusters: 2, Steps: 20, Density: 1})
	randomized := readType(t, con, TypeGrid)
	assert.Equal(t, "S", randomized.Grid.Cells[0][:1])
	assert.Equal(t, "E", randomized.Grid.Cells[2][2:])

	send(t, con, ClientMessage{Op: OpMaze, Seed: 5})
	maze := readType(t, con, TypeGrid)
	assert.Equal(t, "S", maze.Grid.Cells[0][:1])
	assert.Equal(t, "E", maze.Grid.Cells[2][2:])
	assert.Equal(t, "#", maze.Grid.Cells[1][1:2])

	send(t, con, ClientMessage{Op: OpReset})
	reset := readType(t, con, TypeGrid)
	assert.Equal(t, []string{"...", "...", "..."}, reset.Grid.Cells)
	assert.Nil(t, reset.Grid.Start)
}

func TestPlayAllowsOnePlayerPerSession(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)
	first := dial(t, ts, id)
	readType(t, first, TypeGrid)

	_, resp, err := websocket.DefaultDialer.Dial(playURL(ts, id), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		con, _, err := websocket.DefaultDialer.Dial(playURL(ts, id), nil)
		if err != nil {
			return false
		}
		con.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPlayRejectsOversizedInput(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createSession(t, ts)
	con := dial(t, ts, id)
	readType(t, con, TypeGrid)

	send(t, con, ClientMessage{Op: OpLayout, Layout: strings.Repeat(".....\n", 5)})
	assert.Contains(t, readType(t, con, TypeError).Error, "exceeds 16 cells")
	send(t, con, ClientMessage{Op: OpGrid})
	assert.Equal(t, 3, readType(t, con, TypeGrid).Grid.Rows)

	// a message over the read limit ends the connection
	_ = con.WriteMessage(websocket.TextMessage, make([]byte, maxMessageSize+1))
	require.NoError(t, con.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := con.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		con, _, err := websocket.DefaultDialer.Dial(playURL(ts, id), nil)
		if err != nil {
			return false
		}
		con.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{gridastar.ErrInvalidInput, http.StatusBadRequest},
		{session.ErrRunActive, http.StatusConflict},
		{session.ErrNoRun, http.StatusConflict},
		{session.ErrSessionBusy, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}
