package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitGlobalLogger(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(nil) })

	require.NoError(t, InitGlobalLogger("development"))

	sl := GetGlobalLogger()
	assert.Equal(t, serviceName, sl.service)
	assert.Equal(t, serviceVersion, sl.version)
	assert.Equal(t, LevelDebug, sl.minLevel)
}

func TestGetGlobalLogger_FallbackIsSilent(t *testing.T) {
	SetGlobalLogger(nil)
	t.Cleanup(func() { SetGlobalLogger(nil) })

	sl := GetGlobalLogger()
	require.NotNil(t, sl)
	assert.Same(t, sl, GetGlobalLogger())

	// must not panic
	Info("info")
	Error("error", nil)
}

func TestGlobalConvenienceFunctions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetGlobalLogger(NewSystemLoggerWithCore(core, SystemLoggerConfig{Service: serviceName}))
	t.Cleanup(func() { SetGlobalLogger(nil) })

	Debug("debug")
	Info("info", LogContext{Provider: "paynow"})
	Warn("warn")
	Error("error", nil)
	WithProvider("paynow").SetPaymentID("P1").Info("with provider")

	require.Equal(t, 5, logs.Len())
	last := logs.All()[4].ContextMap()
	assert.Equal(t, "paynow", last["provider"])
	assert.Equal(t, "P1", last["payment_id"])
}
