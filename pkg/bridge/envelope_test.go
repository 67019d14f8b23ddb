package bridge

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestBuildEnvelope_JSONObject(t *testing.T) {
	out, kind, err := buildEnvelope([]byte(`{"type":"chat","text":"hello"}`), "server-1", time.Now())
	require.NoError(t, err)
	require.Equal(t, kindJSON, kind)
	require.Equal(t, map[string]any{"type": "chat", "text": "hello", "source": "server-1"}, decode(t, out))
}

func TestBuildEnvelope_OverwritesSource(t *testing.T) {
	out, _, err := buildEnvelope([]byte(`{"source":"spoofed","n":1}`), "server-3", time.Now())
	require.NoError(t, err)
	m := decode(t, out)
	require.Equal(t, "server-3", m["source"])
	require.Equal(t, float64(1), m["n"])
}

func TestBuildEnvelope_KeepsValuesVerbatim(t *testing.T) {
	out, _, err := buildEnvelope([]byte(`{"uid":12345678901234567890,"nested":{"a":[1,2]}}`), "server-1", time.Now())
	require.NoError(t, err)
	require.Contains(t, string(out), `"uid":12345678901234567890`)
	require.Contains(t, string(out), `"nested":{"a":[1,2]}`)
}

func TestBuildEnvelope_PreservesBytes(t *testing.T) {
	cases := map[string]string{
		`{"b":"<a&b>","a":1}`:                   `{"b":"<a&b>","a":1,"source":"server-1"}`,
		`{"z":1,"source":"spoofed","y":[1, 2]}`: `{"z":1,"source":"server-1","y":[1, 2]}`,
		` {"k":"v"} ` + "\n":                    `{"k":"v","source":"server-1"}`,
		`{"a":1,"a":2}`:                         `{"a":2,"source":"server-1"}`,
		`{}`:                                    `{"source":"server-1"}`,
	}
	for in, want := range cases {
		out, kind, err := buildEnvelope([]byte(in), "server-1", time.Now())
		require.NoError(t, err, in)
		require.Equal(t, kindJSON, kind, in)
		require.Equal(t, want, string(out), in)
	}
}

func TestBuildEnvelope_TextFallback(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	for _, raw := range []string{"hello world", `{"broken":`, `[1,2,3]`, `"str"`, `42`, `null`, ``, "\u00a0{\"a\":1}", "\u0085{}", `{"a":1} x`, `{"a":1,}`, `{"a":1}]`} {
		out, kind, err := buildEnvelope([]byte(raw), "server-1", now)
		require.NoError(t, err, raw)
		require.Equal(t, kindText, kind, raw)
		m := decode(t, out)
		require.Equal(t, "unknown-message", m["type"], raw)
		require.Equal(t, raw, m["text"], raw)
		require.NotContains(t, string(out), `\u003c`, raw)
		require.Equal(t, "server-1", m["source"], raw)
		require.Equal(t, float64(1700000000123), m["timestamp"], raw)
	}
}

func TestMessageType(t *testing.T) {
	require.Equal(t, "chat", messageType([]byte(`{"type":"chat"}`)))
	require.Equal(t, "", messageType([]byte(`{"cmd":"ping"}`)))
	require.Equal(t, "", messageType([]byte(`plain`)))
}

func TestLogSafe(t *testing.T) {
	short := []byte("abc")
	require.Equal(t, short, logSafe(short))

	long := []byte(strings.Repeat("x", logBodyLimit+10))
	out := logSafe(long)
	require.True(t, strings.HasSuffix(string(out), "... [truncated]"))
	require.Len(t, out, logBodyLimit+len("... [truncated]"))
	require.Len(t, long, logBodyLimit+10)
}
