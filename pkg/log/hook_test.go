package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func newTestHook() (*hook, map[string]*bytes.Buffer) {
	bufs := map[string]*bytes.Buffer{
		"main":     {},
		"critical": {},
		"verbose":  {},
		"console":  {},
	}
	h := &hook{
		mainWriter:     bufs["main"],
		criticalWriter: bufs["critical"],
		verboseWriter:  bufs["verbose"],
		consoleWriter:  bufs["console"],
		formatter:      &logrus.TextFormatter{DisableTimestamp: true},
	}
	return h, bufs
}

func TestHook_Routing(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  map[string]bool
	}{
		{name: "Error", level: ErrorLevel, want: map[string]bool{"main": true, "critical": true, "verbose": false, "console": true}},
		{name: "Warn", level: WarnLevel, want: map[string]bool{"main": true, "critical": false, "verbose": false, "console": true}},
		{name: "Info", level: InfoLevel, want: map[string]bool{"main": true, "critical": false, "verbose": false, "console": true}},
		{name: "Debug", level: DebugLevel, want: map[string]bool{"main": false, "critical": false, "verbose": true, "console": true}},
		{name: "Trace", level: TraceLevel, want: map[string]bool{"main": false, "critical": false, "verbose": true, "console": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, bufs := newTestHook()
			entry := logrus.NewEntry(logrus.New())
			entry.Level = tt.level
			entry.Message = "가격 추출 완료"

			require.NoError(t, h.Fire(entry))

			for name, written := range tt.want {
				assert.Equal(t, written, bufs[name].Len() > 0, name)
			}
		})
	}
}

func TestHook_ClosedIgnoresEntries(t *testing.T) {
	h, bufs := newTestHook()
	require.NoError(t, h.Close())

	entry := logrus.NewEntry(logrus.New())
	entry.Level = ErrorLevel
	require.NoError(t, h.Fire(entry))

	for name, buf := range bufs {
		assert.Zero(t, buf.Len(), name)
	}
}

func TestHook_WriteFailureStillWritesMain(t *testing.T) {
	main := &bytes.Buffer{}
	h := &hook{
		mainWriter:     main,
		criticalWriter: failingWriter{},
		formatter:      &logrus.TextFormatter{DisableTimestamp: true},
	}

	entry := logrus.NewEntry(logrus.New())
	entry.Level = ErrorLevel
	entry.Message = "boom"

	err := h.Fire(entry)
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, main.String(), "boom")
}
