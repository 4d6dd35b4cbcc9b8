package log

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForComponent(t *testing.T) {
	t.Cleanup(func() {
		sink.h.Store(nil)
	})

	log := ForComponent("sut").With(slog.String("device_id", "abc123"))

	t.Run("Discards before To", func(t *testing.T) {
		require.False(t, log.Enabled(t.Context(), slog.LevelError))
	})

	t.Run("Writes after To", func(t *testing.T) {
		var b bytes.Buffer
		To(slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}))

		log.With(Error(errors.New("boom")), Topic("a/b")).Info("hello")

		out := b.String()
		assert.Contains(t, out, "component=sut")
		assert.Contains(t, out, "device_id=abc123")
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "topic=a/b")
		assert.Contains(t, out, "msg=hello")
	})

	t.Run("Groups", func(t *testing.T) {
		var b bytes.Buffer
		To(slog.NewTextHandler(&b, nil))

		log.WithGroup("mqtt").Info("grouped", slog.Int("qos", 1))

		assert.Contains(t, b.String(), "mqtt.qos=1")
	})
}

func TestParseLevel(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: " DEBUG ", want: slog.LevelDebug},
		{in: "trace", want: LevelTrace},
		{in: "warning", want: slog.LevelWarn},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceLevelNames(t *testing.T) {
	var b bytes.Buffer
	l := slog.New(slog.NewTextHandler(&b, &slog.HandlerOptions{Level: LevelTrace, ReplaceAttr: ReplaceLevelNames}))

	l.Log(t.Context(), LevelTrace, "wire")

	assert.Contains(t, b.String(), "level=TRACE")
}
