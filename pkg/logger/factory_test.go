package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/pkg/logger"
)

func TestNew_JSONDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Info("hello", slog.String("k", "v"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "v", record["k"])

	// Debug is below the default info level.
	buf.Reset()
	log.Debug("quiet")
	assert.Empty(t, buf.String())
}

func TestNew_Development(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("kavach"), logger.WithOutput(&buf))

	log.Debug("verbose")
	out := buf.String()
	assert.Contains(t, out, "verbose")
	assert.Contains(t, out, "service=kavach")
}

func TestNew_StaticAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("version", "1.2.3")),
	)

	log.Info("boot")
	assert.Contains(t, buf.String(), `"version":"1.2.3"`)
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
	assert.Equal(t, "user_id", logger.UserID("u1").Key)
	assert.Equal(t, "component", logger.Component("auth").Key)
	assert.Equal(t, "event", logger.Event("login").Key)
}

func TestNewDiscard(t *testing.T) {
	t.Parallel()

	log := logger.NewDiscard()
	log.Info("dropped") // must not panic
}
