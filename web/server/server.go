package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
)

// Request limits shared by the simulate and chart endpoints
const (
	defaultScene = "shoebox"
	minRays      = 1
	maxRays      = 100000
	minTicks     = 1
	maxTicks     = 1000
	defaultTicks = 5
)

// Server handles web requests for the acoustic simulator
type Server struct {
	port int
	base config.Config
}

// NewServer creates a new web server using the default simulation config
func NewServer(port int) *Server {
	return &Server{port: port, base: config.DefaultConfig()}
}

// WithConfig replaces the config every request starts from
func (s *Server) WithConfig(cfg config.Config) *Server {
	s.base = cfg
	return s
}

// SimulationRequest represents a simulate or chart request from the client
type SimulationRequest struct {
	Scene string `json:"scene"` // Scene name (e.g., "shoebox")
	Rays  int    `json:"rays"`  // Rays per tick
	Ticks int    `json:"ticks"` // Number of ticks to stream
	Seed  int64  `json:"seed"`
}

// Handler returns the routes served by Start
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	mux.HandleFunc("/api/chart", s.handleChart)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// parseSimulationRequest parses request parameters
func (s *Server) parseSimulationRequest(r *http.Request) (*SimulationRequest, error) {
	query := r.URL.Query()
	req := &SimulationRequest{Scene: defaultScene}
	if name := query.Get("scene"); name != "" {
		req.Scene = name
	}

	var err error
	if req.Rays, err = parseIntParam(query, "rays", s.base.RaysPerTick, minRays, maxRays); err != nil {
		return nil, err
	}
	if req.Ticks, err = parseIntParam(query, "ticks", defaultTicks, minTicks, maxTicks); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", int(s.base.Seed), 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	return req, nil
}

// config returns the base config with the request overrides applied
func (s *Server) config(req *SimulationRequest) config.Config {
	cfg := s.base
	cfg.RaysPerTick = req.Rays
	cfg.Seed = req.Seed
	cfg.WarmupSeconds = 0
	return cfg
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// handleSceneConfig returns the scene catalog, the default configuration and
// the request limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}

	sceneObj, err := scene.Create(sceneName)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	response := map[string]interface{}{
		"scene":       sceneName,
		"description": sceneObj.Description,
		"scenes":      scene.ListScenes(),
		"defaults":    s.base,
		"limits": map[string]interface{}{
			"rays": map[string]int{
				"min": minRays,
				"max": maxRays,
			},
			"ticks": map[string]int{
				"min": minTicks,
				"max": maxTicks,
			},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
