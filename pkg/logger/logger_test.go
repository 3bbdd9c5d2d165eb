package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		format     string
		output     string
		outputFile string
		wantErr    bool
	}{
		{
			name:    "valid json stdout debug",
			level:   "debug",
			format:  "json",
			output:  "stdout",
			wantErr: false,
		},
		{
			name:    "valid text stderr info",
			level:   "info",
			format:  "text",
			output:  "stderr",
			wantErr: false,
		},
		{
			name:    "invalid log level",
			level:   "invalid",
			format:  "json",
			output:  "stdout",
			wantErr: true,
		},
		{
			name:    "invalid format",
			level:   "info",
			format:  "invalid",
			output:  "stdout",
			wantErr: true,
		},
		{
			name:    "invalid output",
			level:   "info",
			format:  "json",
			output:  "invalid",
			wantErr: true,
		},
		{
			name:       "file output missing file path",
			level:      "info",
			format:     "json",
			output:     "file",
			outputFile: "",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.level, tt.format, tt.output, tt.outputFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				expectedLevel, _ := logrus.ParseLevel(tt.level)
				if Get().GetLevel() != expectedLevel {
					t.Errorf("Expected log level %v, got %v", expectedLevel, Get().GetLevel())
				}
			}
		})
	}
}

func TestInitializeWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	if err := Initialize("info", "json", "file", logFile); err != nil {
		t.Fatalf("Failed to initialize with file: %v", err)
	}

	Infof("test message")

	if err := Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Log file is empty")
	}

	var logEntry map[string]interface{}
	if err := json.Unmarshal(data, &logEntry); err != nil {
		t.Errorf("Log output is not valid JSON: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		logFunc      func(string, ...interface{})
		shouldAppear bool
	}{
		{"debug at debug level", "debug", Debugf, true},
		{"debug at info level", "info", Debugf, false},
		{"info at info level", "info", Infof, true},
		{"info at warn level", "warn", Infof, false},
		{"warn at warn level", "warn", Warnf, true},
		{"warn at error level", "error", Warnf, false},
		{"error at error level", "error", Errorf, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Initialize(tt.logLevel, "text", "stdout", ""); err != nil {
				t.Fatalf("Failed to initialize: %v", err)
			}

			var buf bytes.Buffer
			Get().SetOutput(&buf)
			tt.logFunc("test message")

			output := buf.String()
			if tt.shouldAppear && output == "" {
				t.Error("Expected log output but got none")
			}
			if !tt.shouldAppear && output != "" {
				t.Errorf("Expected no log output but got: %s", output)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	var buf bytes.Buffer
	Get().SetOutput(&buf)
	Infof("test message")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v\nOutput: %s", err, buf.String())
	}
	if logEntry["msg"] != "test message" {
		t.Errorf("Expected msg='test message', got %v", logEntry["msg"])
	}
	if logEntry["level"] != "info" {
		t.Errorf("Expected level='info', got %v", logEntry["level"])
	}
	if _, ok := logEntry["time"]; !ok {
		t.Error("Expected 'time' field in JSON output")
	}
}

func TestTextFormat(t *testing.T) {
	if err := Initialize("info", "text", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	var buf bytes.Buffer
	Get().SetOutput(&buf)
	Infof("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "level=info") {
		t.Errorf("Expected output to contain 'level=info', got: %s", output)
	}
}

func TestWithFields(t *testing.T) {
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	var buf bytes.Buffer
	Get().SetOutput(&buf)

	WithFields(logrus.Fields{
		"component": "engine",
		"round":     2,
	}).Info("test message")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logEntry["component"] != "engine" {
		t.Errorf("Expected component='engine', got %v", logEntry["component"])
	}
	if logEntry["round"] != float64(2) {
		t.Errorf("Expected round=2, got %v", logEntry["round"])
	}
}

func TestWithError(t *testing.T) {
	if err := Initialize("info", "json", "stdout", ""); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	var buf bytes.Buffer
	Get().SetOutput(&buf)

	WithError(os.ErrNotExist).Error("operation failed")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logEntry["error"] == nil {
		t.Error("Expected 'error' field in log entry")
	}
}

func TestGet(t *testing.T) {
	if Get() == nil {
		t.Error("Get() returned nil logger")
	}
}
