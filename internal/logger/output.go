package logger

import (
	"EasyDockerDeploy/internal/console"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	logFileMu sync.Mutex
	logFile   *os.File

	// DisplayWriter receives Display output. Tests swap it for a buffer.
	DisplayWriter io.Writer = os.Stdout
)

// openLogFile truncates and opens the application log, creating its folder.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	logFileMu.Lock()
	logFile = f
	logFileMu.Unlock()
	return f, nil
}

// Cleanup flushes and closes the log file opened by NewLogger.
func Cleanup() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

// Display prints command output (tables, lists, values) to stdout without a
// level prefix. Console tags are rendered the same way as for log messages.
func Display(ctx context.Context, msg any, args ...any) {
	msgStr := resolveMsg(msg)
	if len(args) > 0 {
		msgStr = fmt.Sprintf(msgStr, args...)
	}
	fmt.Fprintln(DisplayWriter, console.Parse(msgStr))
}
