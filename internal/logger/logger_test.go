package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, ErrorLogger)
	assert.NotNil(t, DebugLogger)
}

func TestInfoWithKeyValues(t *testing.T) {
	var buf bytes.Buffer
	old := InfoLogger
	InfoLogger = log.New(&buf, "INFO: ", 0)
	defer func() { InfoLogger = old }()

	Info("HTTP request", "method", "GET", "status", 200)

	output := buf.String()
	assert.Contains(t, output, "HTTP request")
	assert.Contains(t, output, "method=GET")
	assert.Contains(t, output, "status=200")
}

func TestInfoWithoutKeyValues(t *testing.T) {
	var buf bytes.Buffer
	old := InfoLogger
	InfoLogger = log.New(&buf, "INFO: ", 0)
	defer func() { InfoLogger = old }()

	Info("plain message")

	assert.Contains(t, buf.String(), "plain message")
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	old := ErrorLogger
	ErrorLogger = log.New(&buf, "ERROR: ", 0)
	defer func() { ErrorLogger = old }()

	Errorf("failed to expire request %d: %v", 7, assert.AnError)

	assert.Contains(t, buf.String(), "failed to expire request 7")
}

func TestFormatKVOddArguments(t *testing.T) {
	out := formatKV("msg", []interface{}{"key1", "value1", "dangling"})
	assert.Equal(t, "msg key1=value1 dangling", out)
}
