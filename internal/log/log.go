// Package log provides named sub-loggers over a shared zap core, mirroring
// the teacher's log.WebsocketMgr/log.ExchangeSys idiom: call sites ask for a
// sublogger by area and log through it, instead of reaching for a single
// global logger with area tags sprinkled through every call.
package log

import (
	"sync"

	"go.uber.org/zap"
)

// Area names a logical subsystem, used to route and optionally filter logs.
type Area string

// Well-known areas used throughout this module.
const (
	WebsocketMgr  Area = "websocket"
	Sequencer     Area = "sequencer"
	Transformer   Area = "transformer"
	PaperEngine   Area = "paper"
	SafetyMonitor Area = "safety"
	Snapshot      Area = "snapshot"
	Aggregator    Area = "aggregator"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger
	loggers = make(map[Area]*zap.SugaredLogger)
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	base = l
}

// SetGlobal replaces the backing zap logger, e.g. for tests that want to
// capture output or a caller that wants development-mode console encoding.
func SetGlobal(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	loggers = make(map[Area]*zap.SugaredLogger)
}

func sub(area Area) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[area]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[area]; ok {
		return l
	}
	l := base.Sugar().With("area", string(area))
	loggers[area] = l
	return l
}

// Debugf logs a debug-level message scoped to area.
func Debugf(area Area, format string, args ...any) { sub(area).Debugf(format, args...) }

// Infof logs an info-level message scoped to area.
func Infof(area Area, format string, args ...any) { sub(area).Infof(format, args...) }

// Warnf logs a warn-level message scoped to area.
func Warnf(area Area, format string, args ...any) { sub(area).Warnf(format, args...) }

// Errorf logs an error-level message scoped to area.
func Errorf(area Area, format string, args ...any) { sub(area).Errorf(format, args...) }
