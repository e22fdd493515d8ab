package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	closed int
	err    error
}

func (c *countingCloser) Close() error {
	c.closed++
	return c.err
}

func TestOptions_Validate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, writeFile(file))

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "정상", opts: Options{Name: "bikonomi"}},
		{name: "이름 누락", opts: Options{}, wantErr: "Name"},
		{name: "파일 경로", opts: Options{Name: "x", Dir: file}, wantErr: "파일로 존재"},
		{name: "음수 보관일", opts: Options{Name: "x", MaxAge: -1}, wantErr: "0 이상"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCloser_Idempotent(t *testing.T) {
	a := &countingCloser{}
	b := &countingCloser{err: errors.New("close failed")}
	h := &hook{}

	c := &closer{closers: []io.Closer{a, nil, b}, hook: h}

	assert.EqualError(t, c.Close(), "close failed")
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.True(t, h.closed)
}

func TestNewRotatingFile(t *testing.T) {
	dir := t.TempDir()

	l := newRotatingFile(dir, Options{Name: "bikonomi"}, "critical")
	assert.Equal(t, filepath.Join(dir, "bikonomi.critical.log"), l.Filename)
	assert.Equal(t, defaultMaxSizeMB, l.MaxSize)
	assert.Equal(t, defaultMaxBackups, l.MaxBackups)

	l = newRotatingFile(dir, Options{Name: "bikonomi", MaxSizeMB: 5, MaxBackups: 2}, "")
	assert.Equal(t, filepath.Join(dir, "bikonomi.log"), l.Filename)
	assert.Equal(t, 5, l.MaxSize)
	assert.Equal(t, 2, l.MaxBackups)
}

func TestTextFormatter_CallerPrefix(t *testing.T) {
	f := newTextFormatter("github.com/darkkaiser")

	fn, file := f.CallerPrettyfier(&runtime.Frame{Function: "github.com/darkkaiser/bikonomi/pkg/x.Run", Line: 42})
	assert.Equal(t, ".../bikonomi/pkg/x.Run(line:42)", fn)
	assert.Empty(t, file)
}

func TestWithComponentAndFields(t *testing.T) {
	entry := WithComponentAndFields("analyzer", Fields{"component": "ignored", "key": "trendyol:x"})

	assert.Equal(t, "analyzer", entry.Data["component"])
	assert.Equal(t, "trendyol:x", entry.Data["key"])
}

func TestProfiles(t *testing.T) {
	prod := NewProductionConfig("bikonomi")
	assert.True(t, prod.EnableCriticalLog)
	assert.False(t, prod.EnableConsoleLog)
	assert.NoError(t, prod.Validate())

	dev := NewDevelopmentConfig("bikonomi")
	assert.True(t, dev.EnableConsoleLog)
	assert.Equal(t, DebugLevel, dev.Level)

	cli := NewCLIConfig("bikonomi")
	assert.False(t, cli.EnableConsoleLog)
	assert.Equal(t, "bikonomi-cli", cli.Name)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}
