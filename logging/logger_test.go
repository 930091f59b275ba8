// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jogster/Honeycomb/logging"
)

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.LevelInfo)

	log.Info("hello", "answer", 42)
	rec := lastRecord(t, &buf)
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, float64(42), rec["answer"])
}

func TestLoggerCriticalLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.LevelCritical)

	// Below the minimum level: suppressed.
	log.Error("not important")
	assert.Empty(t, buf.String())

	log.Critical("module failed", "module", "store")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "CRITICAL", rec["level"])
	assert.Equal(t, "module failed", rec["msg"])
	assert.Equal(t, "store", rec["module"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.LevelWarn)

	log.Debug("d")
	log.Info("i")
	assert.Empty(t, buf.String())

	log.Warn("w")
	log.Error("e")
	log.Critical("c")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "nonsense")
	log.Debug("hidden")
	assert.Empty(t, buf.String())
	log.Info("shown")
	assert.NotEmpty(t, buf.String())
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, logging.LevelInfo).With("session", "abc")
	log.Info("tagged")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "abc", rec["session"])
}
