package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goinsight/internal/logger"
)

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	log, err := logger.New(&logger.Config{})
	require.NoError(t, err)
	require.NotNil(t, log)

	// Derived loggers share the interface and never panic on odd fields.
	derived := log.WithComponent("test").WithSource("acme").WithCycle("c1")
	assert.NotNil(t, derived)
	derived.Info("message", "key", "value")
	derived.Info("message with dangling key", "key")
}

func TestNew_JSONEncoding(t *testing.T) {
	t.Parallel()

	log, err := logger.New(&logger.Config{Level: "debug", Encoding: "json"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNoop_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var log logger.Interface = logger.NewNoop()
	log.Info("ignored", "key", "value")
	assert.NotNil(t, log.With("a", 1).WithComponent("x").WithError(nil))
}
