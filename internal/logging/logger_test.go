package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOutputPrefixesAppName(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("socialpulse", "debug", &buf)

	logger.WithField("jti", "abc").Info("token revoked")

	out := buf.String()
	assert.Contains(t, out, "[socialpulse] token revoked")
	assert.Contains(t, out, "jti=abc")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewWithOutputInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("", "loud", &buf)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "Invalid LOG_LEVEL 'loud'")
}
