package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	read := func() string {
		require.NoError(t, aw.Flush())
		require.NoError(t, aw.Close())
		return strings.TrimSpace(buf.String())
	}
	return slog.New(handler), read
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(expected))
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	LogEvent(ctx, log.With("component", "service.words"), slog.LevelError, "insert.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := read()
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.words"`, `"event":"insert.failed"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.Greater(t, idx, pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.NotContains(t, line, "rid_full=")
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerNormalizesDurationsAndEmpties(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	LogEvent(Background(), log, slog.LevelInfo, "dur.test",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("lock_duration", 3*time.Millisecond),
		slog.String("word", ""),
		slog.String("outcome", "bogus"),
	)

	line := read()
	assert.Contains(t, line, "duration_ms=2")
	assert.Contains(t, line, "lock_duration_ms=3")
	assert.NotContains(t, line, "word=")
	assert.NotContains(t, line, "outcome=")
	assert.Contains(t, line, "component=app")
}

func TestStructuredHandlerGroupsAndQuoting(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.WithGroup("req").Info("grouped", slog.String("text", `say "hi" now`))

	line := read()
	assert.Contains(t, line, `req.text="say \"hi\" now"`)
	assert.Contains(t, line, "event=grouped")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "z.10.a", CompactRID("35:36:10"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\x7f"))
	assert.Equal(t, "прив", SanitizeLimit("привет", 4))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/5")
	assert.Equal(t, []int{2, 5}, []int{num, den})
	num, den = parseRatioSpec("10")
	assert.Equal(t, []int{1, 10}, []int{num, den})
	num, den = parseRatioSpec("nope")
	assert.Equal(t, []int{0, 0}, []int{num, den})
}

func TestPreview(t *testing.T) {
	render := func(attrs []any) []string {
		out := make([]string, 0, len(attrs))
		for _, a := range attrs {
			out = append(out, a.(slog.Attr).String())
		}
		return out
	}
	assert.Equal(t, []string{"files_total=3", "files_preview=a, b", "files_truncated=true"},
		render(Preview("files", []string{"a", "b", "c"}, 2)))
	assert.Equal(t, []string{"files_total=0"}, render(Preview("files", nil, 6)))
	assert.Equal(t, []string{"files_total=1", "files_preview=a"}, render(Preview("files", []string{"a"}, 6)))
}

func TestRoundMS(t *testing.T) {
	assert.Equal(t, time.Duration(0), RoundMS(-time.Second))
	assert.Equal(t, 2*time.Millisecond, RoundMS(1600*time.Microsecond))
}
