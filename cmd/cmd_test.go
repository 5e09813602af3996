package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/action/actiontest"
)

// syncBuffer guards log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewLogger_LevelAndSession(t *testing.T) {
	var out bytes.Buffer
	logger, closeLog, err := NewLogger("warn", "", &out)
	require.NoError(t, err)
	defer closeLog()

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	s := out.String()
	assert.NotContains(t, s, "hidden")
	assert.Contains(t, s, `"msg":"shown"`)
	assert.Contains(t, s, `"session":"`)
}

func TestNewLogger_FileSink(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "pilot.log")
	logger, closeLog, err := NewLogger("debug", path, &out)
	require.NoError(t, err)
	logger.Debug("to both")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, out.String(), "to both")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, _, err := NewLogger("loud", "", io.Discard)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "cursor-pilot dev\n", out.String())
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level":"error","feed":"from-file.jsonl","press_distance":3.0,"release_distance":2.5}`), 0o600))

	root, opts, ro := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--config", path, "--log-level", "debug", "--debug"}))
	cfg, err := loadConfig(root, opts, ro)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "from-file.jsonl", cfg.Feed)
	assert.Equal(t, 3.0, cfg.PressDistance)
}

func TestLoadConfig_DefaultsToStdin(t *testing.T) {
	root, opts, ro := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "absent.json")}))
	cfg, err := loadConfig(root, opts, ro)
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.Feed)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestRunHeadless_SteersUntilFeedCloses(t *testing.T) {
	root, opts, ro := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "absent.json"),
		"--headless",
		"--feed", "-",
	}))
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	root.SetIn(pr)
	root.SetOut(out)
	root.SetContext(context.Background())

	fake := actiontest.New(100, 100)
	rt := runtimeDeps{
		input:  fake,
		screen: func() (action.Screen, error) { return action.Screen{Width: 1920, Height: 1080}, nil },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- runPilot(root, opts, ro, rt) }()

	// a far target: the forward key is pressed and the cursor is steered
	// toward the box center (960, 540)
	frame := `{"seq":%d,"objects":[{"class":"dog","box":[940,520,980,560],"distance":3.0}]}` + "\n"
	deadline := time.Now().Add(5 * time.Second)
	for seq := 1; fake.Count(action.OpSetCursorPos) == 0; seq++ {
		require.True(t, time.Now().Before(deadline), "cursor never moved")
		_, err := fmt.Fprintf(pw, frame, seq)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, pw.Close())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after the feed closed")
	}
	assert.False(t, fake.SyntheticDown(action.MustParseVK("w")), "forward key must be released on shutdown")
	assert.True(t, strings.Contains(out.String(), `"msg":"stopped"`), out.String())
}
