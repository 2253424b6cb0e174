package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/scorekeeper/broadcast"
	"github.com/wfunc/scorekeeper/config"
	"github.com/wfunc/scorekeeper/feedback"
	"github.com/wfunc/scorekeeper/game"
	"github.com/wfunc/scorekeeper/network"
	"github.com/wfunc/scorekeeper/preset"
	"github.com/wfunc/scorekeeper/services"
	"github.com/wfunc/scorekeeper/session"
	"github.com/wfunc/scorekeeper/state"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (c *testClient) send(msgID uint16, v any) {
	c.t.Helper()
	data, err := json.Marshal(v)
	require.NoError(c.t, err)
	packet, err := network.EncodePacket(msgID, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, packet))
}

// next reads packets until one with msgID arrives.
func (c *testClient) next(msgID uint16) *network.Packet {
	c.t.Helper()
	return c.collect(msgID)[msgID]
}

// collect reads until one packet of each id has arrived, in any order.
func (c *testClient) collect(msgIDs ...uint16) map[uint16]*network.Packet {
	c.t.Helper()
	want := make(map[uint16]bool, len(msgIDs))
	for _, id := range msgIDs {
		want[id] = true
	}
	got := make(map[uint16]*network.Packet, len(msgIDs))
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(got) < len(want) {
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		packet, err := network.DecodePacket(data)
		require.NoError(c.t, err)
		if want[packet.MsgID] && got[packet.MsgID] == nil {
			got[packet.MsgID] = packet
		}
	}
	return got
}

func newTestServer(t *testing.T) (*httptest.Server, *state.AppState) {
	t.Helper()
	srv, app := newScoreServer()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, app
}

func newScoreServer() (*ScoreServer, *state.AppState) {
	sessions := session.NewManager()
	b := broadcast.NewWatchBroadcaster(nil, sessions)
	app := state.New(preset.Library(), nil, feedback.NewManager(b), state.WithObserver(b))
	b.SetSource(app)
	return NewScoreServer(config.ServerConfig{}, services.NewScoreService(app), sessions, b), app
}

func dial(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func TestScoreServer_CreateAndScore(t *testing.T) {
	ts, _ := newTestServer(t)
	creator := dial(t, ts)

	creator.send(network.MsgTypeCreateSession, network.CreateSessionRequest{PresetID: "table-tennis", Names: []string{"A", "B"}})
	var view game.View
	require.NoError(t, creator.next(network.MsgTypeCreateSession).Decode(&view))
	require.Len(t, view.Players, 2)

	watcher := dial(t, ts)
	watcher.send(network.MsgTypeWatchSession, network.SessionRequest{SessionID: view.ID.String()})
	require.NoError(t, watcher.next(network.MsgTypeWatchSession).Decode(&view))

	creator.send(network.MsgTypeApplyScore, network.ApplyScoreRequest{
		SessionID: view.ID.String(),
		PlayerID:  view.Players[0].ID.String(),
	})

	// the feedback cue is dispatched asynchronously and may overtake the push
	packets := watcher.collect(network.MsgTypeSessionState, network.MsgTypeFeedback)

	var pushed game.View
	require.NoError(t, packets[network.MsgTypeSessionState].Decode(&pushed))
	assert.Equal(t, 1.0, pushed.Players[0].Total)
	assert.Equal(t, "Leader: A (1)", pushed.LeaderSummary)

	var cue network.FeedbackPayload
	require.NoError(t, packets[network.MsgTypeFeedback].Decode(&cue))
	assert.Equal(t, "success", cue.Kind)
}

func TestScoreServer_ValidationError(t *testing.T) {
	ts, app := newTestServer(t)
	client := dial(t, ts)

	client.send(network.MsgTypeCreateSession, network.CreateSessionRequest{PresetID: "football", Names: []string{"Home"}})

	var payload network.ErrorPayload
	require.NoError(t, client.next(network.MsgTypeError).Decode(&payload))
	assert.Equal(t, uint16(network.MsgTypeCreateSession), payload.Request)
	assert.Equal(t, "Can't Create Session", payload.Title)
	assert.Equal(t, "This preset requires at least 2 player(s).", payload.Message)
	assert.Empty(t, app.Sessions())
}

func TestScoreServer_UnknownMessage(t *testing.T) {
	ts, _ := newTestServer(t)
	client := dial(t, ts)

	client.send(999, struct{}{})

	var payload network.ErrorPayload
	require.NoError(t, client.next(network.MsgTypeError).Decode(&payload))
	assert.Equal(t, uint16(999), payload.Request)
}

func TestScoreServer_SettingsPushedToAll(t *testing.T) {
	ts, app := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)

	// make sure both clients are registered before the push
	b.send(network.MsgTypeGetSettings, nil)
	b.next(network.MsgTypeGetSettings)

	a.send(network.MsgTypeUpdateSettings, map[string]bool{"sound_enabled": false})

	var settings network.SettingsPayload
	require.NoError(t, b.next(network.MsgTypeSettingsChanged).Decode(&settings))
	assert.False(t, settings.SoundEnabled)
	assert.True(t, settings.VibrationEnabled, "fields missing from the request keep their value")
	assert.False(t, app.Settings().SoundEnabled)
}

func TestScoreServer_DeleteNotifiesWatchers(t *testing.T) {
	ts, _ := newTestServer(t)
	client := dial(t, ts)

	client.send(network.MsgTypeCreateSession, network.CreateSessionRequest{PresetID: "chess", Names: []string{"W", "B"}})
	var view game.View
	require.NoError(t, client.next(network.MsgTypeCreateSession).Decode(&view))

	client.send(network.MsgTypeDeleteSession, network.DeleteSessionsRequest{SessionIDs: []string{view.ID.String()}})

	packets := client.collect(network.MsgTypeSessionRemoved, network.MsgTypeDeleteSession)

	var removed network.SessionRemovedPayload
	require.NoError(t, packets[network.MsgTypeSessionRemoved].Decode(&removed))
	assert.Equal(t, []string{view.ID.String()}, removed.SessionIDs)

	var reply map[string]int
	require.NoError(t, packets[network.MsgTypeDeleteSession].Decode(&reply))
	assert.Equal(t, 1, reply["removed"])
}

func TestScoreServer_ListManySessions(t *testing.T) {
	ts, app := newTestServer(t)
	for i := 0; i < 400; i++ {
		_, err := app.CreateSession("table-tennis", []string{"Player One", "Player Two"})
		require.NoError(t, err)
	}
	client := dial(t, ts)

	client.send(network.MsgTypeListSessions, nil)

	packet := client.next(network.MsgTypeListSessions)
	assert.Greater(t, len(packet.Data), 0xFFFF)
	var summaries []services.SessionSummary
	require.NoError(t, packet.Decode(&summaries))
	assert.Len(t, summaries, 400)
}

func TestScoreServer_OversizedReplyBecomesError(t *testing.T) {
	srv, _ := newScoreServer()
	srv.handlers[network.MsgTypeListPresets] = func(*session.Session, *network.Packet) (any, error) {
		return strings.Repeat("x", network.MaxPayloadSize), nil
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client := dial(t, ts)

	client.send(network.MsgTypeListPresets, nil)

	var payload network.ErrorPayload
	require.NoError(t, client.next(network.MsgTypeError).Decode(&payload))
	assert.Equal(t, uint16(network.MsgTypeListPresets), payload.Request)
	assert.Equal(t, "Reply Too Large", payload.Title)
}
