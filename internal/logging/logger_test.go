package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesJSONLToFile(t *testing.T) {
	l := &Logger{enabled: true}
	path := filepath.Join(t.TempDir(), "messages.log")
	if err := l.SetOutput(path); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	defer l.Close()

	l.Log(&MessageLog{MessageID: 42, Buffer: "unbounded", Op: "accept", Status: "Accepted"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("expected one line written to log file")
	}
	var entry MessageLog
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal logged entry: %v", err)
	}
	if entry.MessageID != 42 || entry.Buffer != "unbounded" || entry.Status != "Accepted" {
		t.Fatalf("unexpected logged entry: %+v", entry)
	}
}

func TestLoggerDisabledSkipsWrites(t *testing.T) {
	l := &Logger{enabled: false}
	path := filepath.Join(t.TempDir(), "messages.log")
	if err := l.SetOutput(path); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	defer l.Close()

	l.Log(&MessageLog{MessageID: 1, Buffer: "writeonce", Op: "accept"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected no data written while logger disabled, got %q", data)
	}
}
