package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink configures an optional rotating log file written next to stdout.
type FileSink struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu   sync.Mutex
	sink io.Writer
)

// Configure attaches a rotating file sink. An empty path disables it.
func Configure(fs FileSink) {
	mu.Lock()
	defer mu.Unlock()
	if fs.Path == "" {
		sink = nil
		return
	}
	sink = &lumberjack.Logger{
		Filename:   fs.Path,
		MaxSize:    fs.MaxSizeMB,
		MaxBackups: fs.MaxBackups,
		MaxAge:     fs.MaxAgeDays,
		Compress:   true,
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write("warn", msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
}

func write(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg
	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`, time.Now().UTC().Format(time.RFC3339), err.Error()))
	}
	data = append(data, '\n')

	mu.Lock()
	defer mu.Unlock()
	// os.Stdout is resolved per call so tests can swap it.
	_, _ = os.Stdout.Write(data)
	if sink != nil {
		_, _ = sink.Write(data)
	}
}
