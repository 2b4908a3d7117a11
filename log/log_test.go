package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_writesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel).Named("track")
	l.Debug("hidden")
	l.Info("built", String("name", "beginner"), Int("sections", 42))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "built", entry["msg"])
	assert.Equal(t, "track", entry["logger"])
	assert.Equal(t, "beginner", entry["name"])
	assert.InDelta(t, 42, entry["sections"], 0)
}

func TestWithFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	opt, err := WithFilter("warn:race info:track")
	require.NoError(t, err)
	base := New(buf, DebugLevel, opt)

	base.Named("race").Info("dropped")
	base.Named("race").Warn("kept race")
	base.Named("track").Info("kept track")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept race")
	assert.Contains(t, out, "kept track")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Same(t, Default(), GetFromContext(context.Background()))

	l := DevLogger(&bytes.Buffer{}, DebugLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, WarnLevel)
	l.Info("first")
	l.SetLevel(InfoLevel)
	l.Named("child").Info("second")

	assert.NotContains(t, buf.String(), "first")
	assert.Contains(t, buf.String(), "second")
}
