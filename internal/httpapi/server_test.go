package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/manuelpepe/async-uci/internal/analysis"
	"github.com/manuelpepe/async-uci/internal/uci"
)

const startposFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	server := NewServer(analysis.NewService(nil, nil), "default")

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, server.Handler())
	}()
	t.Cleanup(func() { _ = ln.Close() })

	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}
}

func get(t *testing.T, client *http.Client, url string) (int, []byte) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	client := newTestClient(t)
	status, body := get(t, client, "http://ucid/healthz")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestPresets(t *testing.T) {
	client := newTestClient(t)
	status, body := get(t, client, "http://ucid/presets")
	require.Equal(t, http.StatusOK, status)

	var out map[string][]string
	require.NoError(t, json.Unmarshal(body, &out))
	require.Contains(t, out["presets"], "default")
}

func TestEvalRequiresFEN(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/eval")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEvalRejectsInvalidFEN(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/eval?fen=not-a-fen")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestEvalRejectsUnknownPreset(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/eval?fen="+url.QueryEscape(startposFEN)+"&preset=no-such-preset")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestReportsRequiresFEN(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/reports")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestReportsRejectsInvalidFEN(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/reports?fen=not-a-fen")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestReportsWithoutArchive(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/reports?fen="+url.QueryEscape(startposFEN))
	require.Equal(t, http.StatusServiceUnavailable, status)
}

func TestUnknownPath(t *testing.T) {
	client := newTestClient(t)
	status, _ := get(t, client, "http://ucid/nope")
	require.Equal(t, http.StatusNotFound, status)
}

func TestOptionDTOs(t *testing.T) {
	dtos := toOptionDTOs([]uci.EngineOption{
		{Name: "Hash", Type: uci.SpinOption{Default: 16, Min: 1, Max: 1024}},
		{Name: "Ponder", Type: uci.CheckOption{Default: true}},
		{Name: "Style", Type: uci.ComboOption{Default: "Normal", Vars: []string{"Solid", "Normal"}}},
		{Name: "Clear Hash", Type: uci.ButtonOption{}},
		{Name: "SyzygyPath", Type: uci.StringOption{Default: "<empty>"}},
	})
	require.Len(t, dtos, 5)
	require.Equal(t, "spin", dtos[0].Type)
	require.Equal(t, "16", dtos[0].Default)
	require.NotNil(t, dtos[0].Min)
	require.Equal(t, 1024, *dtos[0].Max)
	require.Equal(t, "check", dtos[1].Type)
	require.Equal(t, "true", dtos[1].Default)
	require.Equal(t, []string{"Solid", "Normal"}, dtos[2].Vars)
	require.Equal(t, "button", dtos[3].Type)
	require.Equal(t, "string", dtos[4].Type)
}
