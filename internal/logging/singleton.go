package logging

import (
	"sync"
)

var (
	instance *Logger
	mu       sync.RWMutex
)

// InitLogger builds the process-wide logger. Calling it again replaces the
// previous instance and closes its file.
func InitLogger(config *Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	mu.Lock()
	previous := instance
	instance = logger
	mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// SetGlobalLogger installs logger as the process-wide logger and returns the
// one it replaced, which is left open.
func SetGlobalLogger(logger *Logger) *Logger {
	mu.Lock()
	defer mu.Unlock()
	previous := instance
	instance = logger
	return previous
}

// GetGlobalLogger returns the process-wide logger. Before InitLogger is
// called it hands out a stdout logger at info level.
func GetGlobalLogger() *Logger {
	mu.RLock()
	logger := instance
	mu.RUnlock()
	if logger != nil {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance, _ = NewLogger(&Config{Level: LevelInfo})
	}
	return instance
}
