package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mptledger/mptledger/cli/app"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	return e
}

// newTestConfig writes configuration file for a LevelDB database in a
// temporary directory and returns its path.
func newTestConfig(t *testing.T, secure bool) string {
	return writeTestConfig(t, t.TempDir(), secure)
}

// writeTestConfig writes configuration for the database in d, so that the
// same database can be opened with different settings.
func writeTestConfig(t *testing.T, d string, secure bool) string {
	cfg := fmt.Sprintf(`ApplicationConfiguration:
  LogLevel: debug
  LogPath: %s
  DBConfiguration:
    Type: leveldb
    LevelDBOptions:
      DataDirectoryPath: %s
  Trie:
    Secure: %t
`, filepath.Join(d, "log", "mptledger.log"), filepath.Join(d, "db"), secure)
	path := filepath.Join(d, fmt.Sprintf("config-%t.yml", secure))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...), e.Err.String())
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}
