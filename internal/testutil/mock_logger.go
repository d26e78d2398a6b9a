// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// MockLogger records log entries so tests can assert on them. Loggers
// derived through With or Named write into the same buffer.
type MockLogger struct {
	mu       *sync.Mutex
	messages *[]LogMessage
	fields   []logging.Field
}

// LogMessage is one captured entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// NewMockLogger returns an empty recorder.
func NewMockLogger() *MockLogger {
	return &MockLogger{mu: &sync.Mutex{}, messages: &[]LogMessage{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(append([]logging.Field{}, m.fields...), fields...)
	*m.messages = append(*m.messages, LogMessage{Level: level, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return &MockLogger{mu: m.mu, messages: m.messages, fields: append(append([]logging.Field{}, m.fields...), fields...)}
}

func (m *MockLogger) Named(string) logging.Logger { return m }

// GetMessages returns a copy of the captured entries.
func (m *MockLogger) GetMessages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogMessage, len(*m.messages))
	copy(out, *m.messages)
	return out
}

// Clear drops every captured entry.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.messages = (*m.messages)[:0]
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	return m.Count(level, msg) > 0
}

// Count returns how many times msg was logged at level.
func (m *MockLogger) Count(level, msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, logged := range *m.messages {
		if logged.Level == level && logged.Message == msg {
			n++
		}
	}
	return n
}

// FieldValue returns the value of key on the first entry matching msg.
func (m *MockLogger) FieldValue(msg, key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logged := range *m.messages {
		if logged.Message != msg {
			continue
		}
		for _, f := range logged.Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return nil, false
}

//Personal.AI order the ending
