package services

import (
	"go.uber.org/zap"
)

// testZapLogger returns a silent zap logger for tests.
func testZapLogger() *zap.Logger {
	return zap.NewNop()
}
