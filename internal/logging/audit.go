package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Audit records the durable outcome trail of contact submissions.
// Implementations must be safe for concurrent use and must never fail the
// request on a write error: appends are best-effort.
type Audit interface {
	// Success appends a timestamped line to the success log.
	Success(message string)
	// Error appends a timestamped line to the error log.
	Error(message string)
}

// FileAudit writes success entries to contact.log and error entries to
// error.log under the configured directory, one timestamped line per event.
type FileAudit struct {
	contact *lumberjack.Logger
	errors  *lumberjack.Logger
}

// NewFileAudit creates an Audit backed by rotating files under dir.
func NewFileAudit(dir string) *FileAudit {
	return &FileAudit{
		contact: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "contact.log"),
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     90, // days
		},
		errors: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "error.log"),
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     90,
		},
	}
}

func (a *FileAudit) Success(message string) {
	a.append(a.contact, message)
}

func (a *FileAudit) Error(message string) {
	a.append(a.errors, message)
}

func (a *FileAudit) append(w *lumberjack.Logger, message string) {
	line := fmt.Sprintf("%s - %s\n", time.Now().Format("2006-01-02 15:04:05"), message)
	if _, err := w.Write([]byte(line)); err != nil {
		// An unwritable audit sink must not fail the request.
		GetGlobalLogger().Error("audit log append failed: %v", err)
	}
}

// Close flushes and closes both underlying log files.
func (a *FileAudit) Close() error {
	errContact := a.contact.Close()
	errErrors := a.errors.Close()
	if errContact != nil {
		return errContact
	}
	return errErrors
}
