package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-progressive-acoustics/pkg/analysis"
	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/pkg/core"
	"github.com/df07/go-progressive-acoustics/pkg/material"
	"github.com/df07/go-progressive-acoustics/pkg/report"
	"github.com/df07/go-progressive-acoustics/pkg/scene"
	"github.com/df07/go-progressive-acoustics/pkg/simulator"
	"github.com/df07/go-progressive-acoustics/pkg/store"
)

// options collects the command line flags
type options struct {
	Scene      string
	ConfigPath string
	Ticks      int
	Rays       int
	Seed       int64
	PNGPath    string
	HTMLPath   string
	DBPath     string
	MeshPath   string
	Verbose    bool
}

func main() {
	// Parse command line flags
	var opts options
	flag.StringVar(&opts.Scene, "scene", "shoebox", "Scene: "+strings.Join(scene.Names(), ", "))
	flag.StringVar(&opts.ConfigPath, "config", "", "JSON config file (defaults are used for omitted fields)")
	flag.IntVar(&opts.Ticks, "ticks", 10, "Number of simulation ticks")
	flag.IntVar(&opts.Rays, "rays", 0, "Rays per tick (0 keeps the config value)")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 keeps the config value)")
	flag.StringVar(&opts.PNGPath, "png", "", "Write the final impulse response plot to this PNG file")
	flag.StringVar(&opts.HTMLPath, "html", "", "Write an interactive chart of the final tick to this HTML file")
	flag.StringVar(&opts.DBPath, "db", "", "Record per-tick summaries in this SQLite database")
	flag.StringVar(&opts.MeshPath, "mesh", "", "Add PLY geometry to the scene (material slots: 0 concrete, 1 carpet, 2 glass, 3 wood, 4 anechoic)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Log per-tick simulator details")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Progressive Acoustics")
		fmt.Println("Usage: acoustics [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		for _, info := range scene.ListScenes() {
			fmt.Printf("  %-9s - %s\n", info.ID, info.Description)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies the flag overrides
func loadConfig(opts options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.Rays > 0 {
		cfg.RaysPerTick = opts.Rays
	}
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}
	if opts.Verbose {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

// createScene builds a named scene that has both a source and a listener
func createScene(name string) (*scene.Scene, error) {
	s, err := scene.Create(name)
	if err != nil {
		return nil, err
	}
	if s.Source.IsZero() || s.Listener.IsZero() {
		return nil, fmt.Errorf("scene %s has no source or listener", name)
	}
	return s, nil
}

// addMesh loads a PLY file into s, mapping its material slots onto presets
func addMesh(s *scene.Scene, path string, out io.Writer) error {
	presets := []*material.AcousticMaterial{
		material.Concrete(), material.Carpet(), material.Glass(), material.Wood(), material.Anechoic(),
	}
	mats := make([]material.Handle, len(presets))
	for i, m := range presets {
		mats[i] = s.Materials.Register(m)
	}
	if _, err := s.LoadPLY(path, mats...); err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded mesh %s (%d shapes in scene)\n", path, s.ShapeCount())
	return nil
}

// run simulates the scene for opts.Ticks ticks, printing each tick, then
// writes the requested reports for the last published result
func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", opts.Ticks)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	selectedScene, err := createScene(opts.Scene)
	if err != nil {
		return err
	}
	if opts.MeshPath != "" {
		if err := addMesh(selectedScene, opts.MeshPath, out); err != nil {
			return err
		}
	}

	var logger core.Logger = core.NopLogger{}
	if cfg.Verbose {
		logger = core.NewDefaultLogger()
	}

	var db *store.Store
	var runID string
	if opts.DBPath != "" {
		if db, err = store.Open(opts.DBPath); err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.StartRun(selectedScene.Name, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Recording run %s in %s\n", runID, opts.DBPath)
	}

	sim, err := simulator.New(selectedScene, selectedScene.Listener, cfg, logger)
	if err != nil {
		return err
	}
	defer sim.Close()
	sim.Register(selectedScene.Source)

	fmt.Fprintf(out, "Simulating %s: %d ticks of %d rays\n", selectedScene.Name, opts.Ticks, cfg.RaysPerTick)
	if warmup := cfg.Warmup(); warmup > 0 {
		fmt.Fprintf(out, "Warming up for %v\n", warmup)
	}
	startTime := time.Now()

	// The tick channel is drained even after a store failure so the simulator
	// is idle when it is closed
	var recordErr error
	tickChan, errChan := sim.Run(ctx, opts.Ticks)
	for summary := range tickChan {
		for _, result := range summary.Results {
			metrics, _ := analysis.AnalyzeChannel(result.Response, 0)
			printTick(out, result, metrics)
			if db != nil && recordErr == nil {
				recordErr = db.RecordTick(runID, store.TickRecordFrom(result, metrics))
			}
		}
	}
	if err := <-errChan; err != nil {
		return err
	}
	if recordErr != nil {
		return recordErr
	}
	fmt.Fprintf(out, "Simulation completed in %v\n", time.Since(startTime))

	result, ok := sim.Result(selectedScene.Source)
	if !ok {
		return fmt.Errorf("no result published for scene %s", selectedScene.Name)
	}
	return writeReports(opts, result, selectedScene.Name, out)
}

func printTick(out io.Writer, r *simulator.SourceResult, m analysis.Metrics) {
	fmt.Fprintf(out, "Tick %d: %d/%d paths connected, max %d bounces, energy %.4g, occlusion %.2f, %d taps\n",
		r.Tick, r.Stats.Connected, r.Stats.Attempted, r.Stats.MaxBounces,
		r.Stats.TotalEnergy, r.Occlusion, len(r.Taps))
	fmt.Fprintf(out, "  RT60 %.3fs  EDT %.3fs  C50 %.1fdB  C80 %.1fdB  D50 %.2f  Ts %.1fms\n",
		m.RT60, m.EDT, m.C50, m.C80, m.D50, 1000*m.CenterTime)
}

// writeReports writes the PNG, decay PNG and HTML reports concurrently
func writeReports(opts options, result *simulator.SourceResult, sceneName string, out io.Writer) error {
	var g errgroup.Group
	title := fmt.Sprintf("%s, tick %d", sceneName, result.Tick)

	if opts.PNGPath != "" {
		g.Go(func() error {
			return report.WritePNG(opts.PNGPath, result.Response, title)
		})
		g.Go(func() error {
			return report.WriteDecayPNG(decayPath(opts.PNGPath), result.Response, 0, title)
		})
	}
	if opts.HTMLPath != "" {
		g.Go(func() error {
			return writeHTMLFile(opts.HTMLPath, result, title)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.PNGPath != "" {
		fmt.Fprintf(out, "Impulse response saved as %s and %s\n", opts.PNGPath, decayPath(opts.PNGPath))
	}
	if opts.HTMLPath != "" {
		fmt.Fprintf(out, "Chart saved as %s\n", opts.HTMLPath)
	}
	return nil
}

// decayPath derives the decay plot filename, e.g. ir.png -> ir_decay.png
func decayPath(pngPath string) string {
	ext := filepath.Ext(pngPath)
	return strings.TrimSuffix(pngPath, ext) + "_decay" + ext
}

func writeHTMLFile(path string, result *simulator.SourceResult, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := report.WriteHTML(file, result, title); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
