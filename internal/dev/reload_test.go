package dev

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialReload(t *testing.T, rs *ReloadServer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewSiteHandler(SiteOptions{Root: outputFS(), Reload: rs}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + ReloadPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg ReloadMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestReloadServer_Broadcast(t *testing.T) {
	rs := NewReloadServer(nil)
	conn := dialReload(t, rs)
	require.Eventually(t, func() bool { return rs.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	rs.NotifyReload()
	assert.Equal(t, ReloadMessage{Type: ReloadTypeFull}, readMessage(t, conn))

	rs.NotifyCSS("site.css")
	assert.Equal(t, ReloadMessage{Type: ReloadTypeCSS, File: "site.css"}, readMessage(t, conn))

	rs.NotifyError("E220: Asset not found [asset /missing.csv]")
	assert.Equal(t, ReloadTypeError, readMessage(t, conn).Type)

	rs.ClearError()
	assert.Equal(t, ReloadMessage{Type: ReloadTypeClear}, readMessage(t, conn))

	rs.Close()
	assert.Equal(t, 0, rs.ClientCount())
}

func TestReloadServer_ReplaysError(t *testing.T) {
	rs := NewReloadServer(nil)
	rs.NotifyError("build failed")

	conn := dialReload(t, rs)
	msg := readMessage(t, conn)
	assert.Equal(t, ReloadMessage{Type: ReloadTypeError, Error: "build failed"}, msg)

	rs.NotifyReload()
	assert.Equal(t, ReloadTypeFull, readMessage(t, conn).Type)
	rs.Close()
}

func TestReloadServer_Disconnect(t *testing.T) {
	rs := NewReloadServer(nil)
	conn := dialReload(t, rs)
	require.Eventually(t, func() bool { return rs.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return rs.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestReloadMessage_JSON(t *testing.T) {
	data, err := json.Marshal(ReloadMessage{Type: ReloadTypeFull})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"reload"}`, string(data))

	data, err = json.Marshal(ReloadMessage{Type: ReloadTypeError, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error":"boom"}`, string(data))
}

func TestClientScript(t *testing.T) {
	assert.Contains(t, ClientScript, ReloadPath)
	assert.Contains(t, ClientScript, "vizsite-error-overlay")
	assert.True(t, strings.HasPrefix(ClientScript, "<script>"))
}
