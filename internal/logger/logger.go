package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath is the default log file, relative to the working directory.
const LogFilePath = "logs/trainer.log"

const (
	maxSizeMB  = 50
	maxBackups = 3
)

// Logger wraps a zap.SugaredLogger. Components take the embedded *zap.SugaredLogger; the
// wrapper only exists so main can build, flush and close it in one place.
type Logger struct {
	*zap.SugaredLogger
	file *lumberjack.Logger
}

// New returns a Logger appending JSON lines to path (LogFilePath when empty), creating the
// directory if needed. The file is rotated at 50 MB with three backups kept.
// debug lowers the level so grabs, releases and fired actions are recorded.
func New(path string, debug bool) (*Logger, error) {
	if path == "" {
		path = LogFilePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(file), level)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), file: file}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// OrNop returns l, or a discarding logger when l is nil. Constructors use it so a nil
// logger argument is always safe.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
