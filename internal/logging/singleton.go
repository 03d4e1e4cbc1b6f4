package logging

import (
	"sync"
)

var (
	instance  *Logger
	once      sync.Once
	mu        sync.RWMutex
	logConfig *LogConfig
)

// InitLogger sets the logging configuration.
// This should be called before any logger usage.
func InitLogger(config *LogConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	logConfig = config
	return nil
}

// GetGlobalLogger returns the singleton logger instance.
// If the logger hasn't been initialized yet, it initializes it with the
// configuration provided via InitLogger(). If no config was provided, it panics.
func GetGlobalLogger() *Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		if logConfig == nil {
			panic("logger configuration not set - call logging.InitLogger() first")
		}

		var err error
		instance, err = NewLogger(logConfig)
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	})

	return instance
}
