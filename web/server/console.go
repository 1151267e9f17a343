package server

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/df07/go-progressive-acoustics/pkg/core"
)

// Console levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ConsoleMessage is one simulator log line forwarded to the browser console
type ConsoleMessage struct {
	Message      string    `json:"message"`
	SimulationID string    `json:"simulationId"`
	Timestamp    time.Time `json:"timestamp"`
	Level        string    `json:"level"`
}

// levelPrefixes classifies simulator log lines. The first match wins.
var levelPrefixes = []struct {
	prefix string
	level  string
}{
	{"Dropping stale source", LevelWarning},
	{"Simulation cancelled", LevelWarning},
	{"Warming up", LevelInfo},
	{"Error", LevelError},
	{"Simulation failed", LevelError},
}

// messageLevel returns the console level for a simulator log line
func messageLevel(message string) string {
	for _, p := range levelPrefixes {
		if strings.HasPrefix(message, p.prefix) {
			return p.level
		}
	}
	return LevelInfo
}

// WebLogger forwards simulator logs of one simulation to its console channel
// and to the server log. Sends never block; messages that find the channel
// full are counted and dropped.
type WebLogger struct {
	simulationID string
	consoleChan  chan<- ConsoleMessage
	dropped      atomic.Int64
}

var _ core.Logger = (*WebLogger)(nil)

// NewWebLogger creates the logger for simulationID. consoleChan may be nil.
func NewWebLogger(simulationID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		simulationID: simulationID,
		consoleChan:  consoleChan,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	level := messageLevel(message)
	log.Printf("[%s] %s: %s", wl.simulationID, level, strings.TrimRight(message, "\n"))

	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:      message,
		SimulationID: wl.simulationID,
		Timestamp:    time.Now(),
		Level:        level,
	}:
	default:
		wl.dropped.Add(1)
	}
}

// Dropped returns how many messages found the console channel full
func (wl *WebLogger) Dropped() int64 {
	return wl.dropped.Load()
}

// SimulationID returns the id stamped on every message
func (wl *WebLogger) SimulationID() string {
	return wl.simulationID
}
