package misc

import (
	"github.com/sirupsen/logrus"
)

var coreTrace = false
var tensorTrace = false
var platformTrace = false

func makeLogger(flag bool, quiet logrus.Level, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = quiet
	}
	return logger
}

// EnableTrace turns on per-cycle debug logging for every layer. The trace
// is expensive enough to disturb long simulations, so it stays off unless
// requested.
func EnableTrace() {
	coreTrace = true
	tensorTrace = true
	platformTrace = true
}

// CoreTrace returns true if the pipeline should log each cycle.
func CoreTrace() bool {
	return coreTrace
}

// CoreLogger returns a configured logger for the execution pipeline.
func CoreLogger() *logrus.Entry {
	return makeLogger(coreTrace, logrus.PanicLevel, logrus.Fields{"layer": "core"})
}

// TensorLogger returns a configured logger for the bf16 tensor engine.
func TensorLogger() *logrus.Entry {
	return makeLogger(tensorTrace, logrus.PanicLevel, logrus.Fields{"layer": "tensor"})
}

// PlatformLogger returns a configured logger for the host-facing
// platform. The platform reports run status at Info level even when
// tracing is off; only its per-cycle debug output is gated.
func PlatformLogger() *logrus.Entry {
	return makeLogger(platformTrace, logrus.InfoLevel, logrus.Fields{"layer": "platform"})
}
