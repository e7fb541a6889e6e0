package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/app/orch"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/mocks"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type harness struct {
	srv  *httptest.Server
	orch *orch.Orchestrator
}

func newHarness(t *testing.T, tr core.Translator, opts Options) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	o := &orch.Orchestrator{Registry: app.NewRegistry(), Policy: app.SimplePolicy{}, Translator: tr}
	ctl := NewSignalWSController(o, opts)

	r := gin.New()
	r.GET("/ws/multi-language/:room_id", func(c *gin.Context) {
		ctl.HandleRoom(context.Background(), c, Defaults{Seed: "0123456789abcdef"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, orch: o}
}

func (h *harness) dial(t *testing.T, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws/multi-language/" + room
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func (h *harness) connect(t *testing.T, room, id, lang string) *websocket.Conn {
	t.Helper()
	ws := h.dial(t, room)
	send(t, ws, `{"user_id":"`+id+`","language":"`+lang+`"}`)
	got := read(t, ws)
	require.Equal(t, "connected", got["type"], "%v", got)
	require.Equal(t, id, got["user_id"])
	return ws
}

func send(t *testing.T, ws *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func read(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func requireClosed(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection still open: %v", err)
}

// expectNothingQueued sends a ping and checks that the pong is the very next frame,
// proving nothing else was queued before it.
func expectNothingQueued(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	send(t, ws, `{"type":"ping"}`)
	require.Equal(t, "pong", read(t, ws)["type"])
}

func TestRelay_TranslatedScenario(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTranslator(ctrl)
	tr.EXPECT().Translate(gomock.Any(), "Hello", domain.Language("fr")).Return("Bonjour", nil).Times(1)
	h := newHarness(t, tr, Options{})

	// Given A (en) and B (fr) in r1
	a := h.connect(t, "r1", "A", "en")
	b := h.connect(t, "r1", "B", "fr")
	joined := read(t, a)
	req.Equal("user_joined", joined["type"])
	req.Equal("B", joined["user_id"])
	req.Equal("fr", joined["language"])

	// When A sends Hello
	send(t, a, `{"type":"chat","content":"Hello","timestamp":"12:00"}`)

	// Then A sees the original and B the translation
	gotA := read(t, a)
	req.Equal("message", gotA["type"])
	req.Equal("A", gotA["user_id"])
	req.Equal("Hello", gotA["content"])
	req.Equal(true, gotA["is_original"])
	req.Equal("en", gotA["language"])
	req.Equal("12:00", gotA["timestamp"])

	gotB := read(t, b)
	req.Equal("message", gotB["type"])
	req.Equal("A", gotB["user_id"])
	req.Equal("Bonjour", gotB["content"])
	req.Equal("Hello", gotB["original_content"])
	req.Equal(false, gotB["is_original"])
	req.Equal("fr", gotB["language"])
	req.Equal("12:00", gotB["timestamp"])
}

func TestRelay_ThirdParticipantRejected(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	a := h.connect(t, "r1", "A", "en")
	h.connect(t, "r1", "B", "fr")
	req.Equal("user_joined", read(t, a)["type"])

	c := h.dial(t, "r1")
	send(t, c, `{"user_id":"C","language":"de"}`)

	got := read(t, c)
	req.Equal("error", got["type"])
	req.Equal("Room is full (max 2 users).", got["message"])
	requireClosed(t, c)

	members := h.orch.Registry.MembersOf("r1")
	req.Len(members, 2)
	expectNothingQueued(t, a)
}

func TestRelay_InvalidInitClosesWithoutJoining(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})

	ws := h.dial(t, "r1")
	send(t, ws, `this is not json`)

	got := read(t, ws)
	req.Equal("error", got["type"])
	req.Equal("Invalid init payload", got["message"])
	requireClosed(t, ws)
	req.Empty(h.orch.Registry.MembersOf("r1"))
}

func TestRelay_InitDefaults(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})

	ws := h.dial(t, "r1")
	send(t, ws, `{}`)

	got := read(t, ws)
	req.Equal("connected", got["type"])
	req.Equal("user_01234567", got["user_id"])
	req.Equal("en", got["language"])
	req.Equal("r1", got["room_id"])
}

func TestRelay_MalformedFrameKeepsConnection(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	a := h.connect(t, "r1", "A", "en")

	send(t, a, `{{{`)

	got := read(t, a)
	req.Equal("error", got["type"])
	req.Equal("Invalid message format", got["message"])
	expectNothingQueued(t, a)
	req.Len(h.orch.Registry.MembersOf("r1"), 1)
}

func TestRelay_UnknownKind(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	a := h.connect(t, "r1", "A", "en")

	send(t, a, `{"type":"dance"}`)

	got := read(t, a)
	req.Equal("error", got["type"])
	req.Equal("Unknown message type: dance", got["message"])
	expectNothingQueued(t, a)
}

func TestRelay_TypingGoesToPeerOnly(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	a := h.connect(t, "r1", "A", "en")
	b := h.connect(t, "r1", "B", "fr")
	req.Equal("user_joined", read(t, a)["type"])

	send(t, a, `{"type":"typing","is_typing":true}`)

	req.Equal(map[string]any{"type": "typing", "user_id": "A", "is_typing": true}, read(t, b))
	expectNothingQueued(t, a)
}

func TestRelay_DisconnectNotifiesPeerOnce(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	a := h.connect(t, "r1", "A", "en")
	b := h.connect(t, "r1", "B", "fr")
	req.Equal("user_joined", read(t, a)["type"])

	// When A drops without a close frame
	req.NoError(a.Close())

	got := read(t, b)
	req.Equal("user_left", got["type"])
	req.Equal("A", got["user_id"])
	expectNothingQueued(t, b)

	members := h.orch.Registry.MembersOf("r1")
	req.Len(members, 1)
	req.Equal(domain.UserID("B"), members[0].Meta().ID)

	// And the room disappears with its last member
	req.NoError(b.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	req.Eventually(func() bool { return len(h.orch.Registry.List()) == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestRelay_DuplicateUserRejected(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{})
	h.connect(t, "r1", "A", "en")

	ws := h.dial(t, "r1")
	send(t, ws, `{"user_id":"A","language":"es"}`)

	got := read(t, ws)
	req.Equal("error", got["type"])
	req.Equal("User id already in room", got["message"])
	requireClosed(t, ws)
	req.Equal(domain.Language("en"), h.orch.Registry.LanguageOf("r1", "A"))
}

func TestRelay_ChatRateLimit(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, nil, Options{ChatRate: config.RateConfig{Limit: 1, Interval: time.Minute}})
	a := h.connect(t, "r1", "A", "en")

	send(t, a, `{"type":"chat","content":"one"}`)
	send(t, a, `{"type":"chat","content":"two"}`)

	req.Equal("one", read(t, a)["content"])
	got := read(t, a)
	req.Equal("error", got["type"])
	req.Equal("Rate limit exceeded", got["message"])
}
