package logging

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var auditLineRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - `)

func TestFileAudit(t *testing.T) {
	dir := t.TempDir()
	audit := NewFileAudit(dir)
	defer audit.Close()

	audit.Success("E-mail sent!")
	audit.Success("E-mail sent!")
	audit.Error("smtp: connection refused")

	contact, err := os.ReadFile(filepath.Join(dir, "contact.log"))
	if err != nil {
		t.Fatalf("reading contact.log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(contact), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("contact.log has %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !auditLineRe.MatchString(line) {
			t.Errorf("line not timestamped: %q", line)
		}
		if !strings.HasSuffix(line, "E-mail sent!") {
			t.Errorf("line missing message: %q", line)
		}
	}

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("reading error.log: %v", err)
	}
	if !strings.Contains(string(errLog), "smtp: connection refused") {
		t.Errorf("error.log missing entry: %q", errLog)
	}
	if strings.Contains(string(contact), "refused") {
		t.Errorf("error entry leaked into contact.log")
	}
}
