package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-progressive-acoustics/pkg/analysis"
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/impulse"
	"github.com/df07/go-progressive-acoustics/pkg/report"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
	"github.com/df07/go-progressive-acoustics/pkg/simulator"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tick", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// SourceUpdate is the per-source part of a TickUpdate
type SourceUpdate struct {
	Source    string              `json:"source"`
	Stats     simulator.TickStats `json:"stats"`
	Taps      []impulse.Tap       `json:"taps"`
	Occlusion float32             `json:"occlusion"`
	Metrics   analysis.Metrics    `json:"metrics"`
}

// TickUpdate is sent via SSE once per completed tick
type TickUpdate struct {
	Event      string         `json:"event"`
	Tick       int            `json:"tick"`
	TotalTicks int            `json:"totalTicks"`
	ElapsedMs  int64          `json:"elapsedMs"`
	Sources    []SourceUpdate `json:"sources"`
}

// simulation holds the scene and simulator backing one request
type simulation struct {
	scene *scene.Scene
	sim   *simulator.Simulator
}

// handleSimulate runs the requested scene and streams one event per tick via SSE
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseSimulationRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Console streaming stops before the event channel is closed
	consoleCtx, stopConsole := context.WithCancel(ctx)
	var consoleWG sync.WaitGroup
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(consoleCtx, consoleChan, sseEventChan)
	}()
	defer func() {
		stopConsole()
		consoleWG.Wait()
	}()

	sim, err := s.setupSimulation(req, webLogger, true)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	defer sim.sim.Close()

	startTime := time.Now()
	tickChan, errChan := sim.sim.Run(ctx, req.Ticks)
	s.handleSimulationEvents(ctx, sseEventChan, tickChan, errChan, req, startTime, webLogger)
}

// handleChart runs one tick of the requested scene and renders it as an HTML page
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSimulationRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	sim, err := s.setupSimulation(req, core.NopLogger{}, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer sim.sim.Close()

	summary, err := sim.sim.Tick(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Simulation failed: %v", err), http.StatusInternalServerError)
		return
	}
	if len(summary.Results) == 0 {
		http.Error(w, "Simulation produced no result", http.StatusInternalServerError)
		return
	}

	// Render to a buffer so a failure can still become an error response
	var buf bytes.Buffer
	title := fmt.Sprintf("%s, %d rays", sim.scene.Name, req.Rays)
	if err := report.WriteHTML(&buf, summary.Results[0], title); err != nil {
		http.Error(w, fmt.Sprintf("Chart failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a simulation
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, *WebLogger) {
	consoleChan := make(chan ConsoleMessage, 50)
	simulationID := fmt.Sprintf("sim-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(simulationID, consoleChan)
	return consoleChan, webLogger
}

// setupSimulation creates the scene and a simulator with its default source registered
func (s *Server) setupSimulation(req *SimulationRequest, logger core.Logger, verbose bool) (*simulation, error) {
	sceneObj, err := scene.Create(req.Scene)
	if err != nil {
		return nil, err
	}
	if sceneObj.Source.IsZero() || sceneObj.Listener.IsZero() {
		return nil, fmt.Errorf("scene %s has no source or listener", req.Scene)
	}

	cfg := s.config(req)
	cfg.Verbose = verbose
	sim, err := simulator.New(sceneObj, sceneObj.Listener, cfg, logger)
	if err != nil {
		return nil, err
	}
	sim.Register(sceneObj.Source)

	logger.Printf("Simulating %s with %d rays per tick\n", sceneObj.Name, req.Rays)
	return &simulation{scene: sceneObj, sim: sim}, nil
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			// Check if client is still connected before writing
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards console messages to the SSE channel
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				return
			}

			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleSimulationEvents drains the simulator's channels into SSE events. The
// tick channel is always read to the end so the simulator is idle on return.
func (s *Server) handleSimulationEvents(ctx context.Context, sseEventChan chan SSEEvent,
	tickChan <-chan simulator.TickSummary, errChan <-chan error, req *SimulationRequest, startTime time.Time,
	console *WebLogger) {

	for summary := range tickChan {
		s.handleTickComplete(ctx, sseEventChan, summary, req, startTime)
	}

	if err := <-errChan; err != nil {
		if ctx.Err() != nil {
			// Client disconnected
			return
		}
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Simulation failed: %v", err))
		return
	}

	if dropped := console.Dropped(); dropped > 0 {
		s.sendConsoleMessage(ctx, sseEventChan, ConsoleMessage{
			Message:      fmt.Sprintf("%d console messages were dropped\n", dropped),
			SimulationID: console.SimulationID(),
			Timestamp:    time.Now(),
			Level:        LevelWarning,
		})
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Simulation completed"}:
	case <-ctx.Done():
	}
}

// handleTickComplete processes and sends tick completion events
func (s *Server) handleTickComplete(ctx context.Context, sseEventChan chan SSEEvent, summary simulator.TickSummary, req *SimulationRequest, startTime time.Time) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	update := TickUpdate{
		Event:      "tickComplete",
		Tick:       summary.Tick,
		TotalTicks: req.Ticks,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
		Sources:    make([]SourceUpdate, 0, len(summary.Results)),
	}
	for _, result := range summary.Results {
		update.Sources = append(update.Sources, sourceUpdate(result))
	}

	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Error marshaling tick update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "tick", Data: string(data)}:
	case <-ctx.Done():
	}
}

func sourceUpdate(result *simulator.SourceResult) SourceUpdate {
	update := SourceUpdate{
		Source:    fmt.Sprintf("%d:%d", result.Source.Index, result.Source.Generation),
		Stats:     result.Stats,
		Taps:      result.Taps,
		Occlusion: result.Occlusion,
	}
	if m, err := analysis.AnalyzeChannel(result.Response, 0); err == nil {
		update.Metrics = m
	}
	return update
}

// sendConsoleMessage emits msg as a console event, blocking until it is
// queued or the client is gone
func (s *Server) sendConsoleMessage(ctx context.Context, sseEventChan chan SSEEvent, msg ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling console message: %v", err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
