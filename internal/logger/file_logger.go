package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger represents a file logger for risk-engine activity
type Logger struct {
	component string
	logFile   *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logDir    string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewLogger creates a new file logger for the specified component,
// writing under the default "logs" directory.
func NewLogger(component string) (*Logger, error) {
	return NewLoggerAt("logs", component)
}

// NewLoggerAt creates a new file logger rooted at the given directory.
func NewLoggerAt(dir, component string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("risk_%s_%s.log", component, timestamp)
	logPath := filepath.Join(dir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		component: component,
		logFile:   file,
		logger:    log.New(file, "", 0),
		logDir:    dir,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf("=== %s session started at %s ===",
		l.component, time.Now().Format("2006-01-02 15:04:05"))
	l.logger.Println(header)
}

// write writes a formatted log entry with level and timestamp
func (l *Logger) write(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LogLevelInfo, fmt.Sprintf(format, args...))
}

// LogWarning logs a titled warning message
func (l *Logger) LogWarning(title, format string, args ...interface{}) {
	l.write(LogLevelWarning, fmt.Sprintf("%s: %s", title, fmt.Sprintf(format, args...)))
}

// LogError logs a titled error
func (l *Logger) LogError(title string, err error) {
	l.write(LogLevelError, fmt.Sprintf("%s: %v", title, err))
}

// Trade logs a trade-related event
func (l *Logger) Trade(format string, args ...interface{}) {
	l.write(LogLevelTrade, fmt.Sprintf(format, args...))
}

// Status logs a periodic status line
func (l *Logger) Status(format string, args ...interface{}) {
	l.write(LogLevelStatus, fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		l.logger.Println(fmt.Sprintf("=== %s session closed at %s ===",
			l.component, time.Now().Format("2006-01-02 15:04:05")))
		return l.logFile.Close()
	}
	return nil
}
