package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"

	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/config"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/logging"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/plot"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/results"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/server"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/vmc"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to INI configuration file")
		numWalkers  = flag.Int("numwalkers", 0, "number of Monte Carlo walkers")
		numSteps    = flag.Int("numsteps", 0, "number of measurement steps")
		equilSteps  = flag.Int("equilibration-steps", 0, "equilibration sweeps per measurement step")
		alpha       = flag.Float64("alpha", 0, "initial variational parameter alpha")
		learnRate   = flag.Float64("learning-rate", 0, "gradient-descent learning rate for alpha")
		stepSize    = flag.Float64("step-size", 0, "standard deviation of the proposal displacement")
		seed        = flag.Uint64("seed", 0, "random seed (0 picks one from the clock)")
		outputDir   = flag.String("output-dir", "", "directory for CSV and plot output")
		dbPath      = flag.String("db", "", "SQLite run archive path (empty disables archiving)")
		monitorAddr = flag.String("monitor-addr", "", "listen address for the HTTP run monitor (empty disables it)")
		noPlots     = flag.Bool("no-plots", false, "skip rendering plots")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags win over both the config file and the environment.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["numwalkers"] {
		cfg.Simulation.NumWalkers = *numWalkers
	}
	if set["numsteps"] {
		cfg.Simulation.NumSteps = *numSteps
	}
	if set["equilibration-steps"] {
		cfg.Simulation.EquilibrationSteps = *equilSteps
	}
	if set["alpha"] {
		cfg.Simulation.Alpha = *alpha
	}
	if set["learning-rate"] {
		cfg.Simulation.LearningRate = *learnRate
	}
	if set["step-size"] {
		cfg.Simulation.StepSize = *stepSize
	}
	if set["seed"] {
		cfg.Simulation.Seed = *seed
	}
	if set["output-dir"] {
		cfg.Output.Dir = *outputDir
	}
	if set["db"] {
		cfg.Output.Database = *dbPath
	}
	if set["monitor-addr"] {
		cfg.Monitor.Addr = *monitorAddr
	}
	if *noPlots {
		cfg.Output.Plots = false
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	runLogger := logger.WithField("service", "vmc-eigenhydrogen")

	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = uint64(time.Now().UnixNano())
		runLogger.Info("seed picked from clock", map[string]interface{}{"seed": cfg.Simulation.Seed})
	}

	samplerCfg := vmc.Config{
		EquilibrationSteps: cfg.Simulation.EquilibrationSteps,
		NumSteps:           cfg.Simulation.NumSteps,
		NumWalkers:         cfg.Simulation.NumWalkers,
		Alpha:              cfg.Simulation.Alpha,
		LearningRate:       cfg.Simulation.LearningRate,
		StepSize:           cfg.Simulation.StepSize,
		Seed:               cfg.Simulation.Seed,
	}

	registry := prometheus.NewRegistry()
	metrics := vmc.NewMetrics(registry)
	progress := server.NewProgress(samplerCfg.NumSteps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitor.Addr != "" {
		monitor := &http.Server{
			Addr:    cfg.Monitor.Addr,
			Handler: server.New(runLogger.WithField("component", "monitor"), progress, registry).Routes(),
		}
		go func() {
			runLogger.Info("run monitor listening", map[string]interface{}{"addr": cfg.Monitor.Addr})
			if err := monitor.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				runLogger.WithError(err).Error("run monitor failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = monitor.Shutdown(shutdownCtx)
		}()
	}

	sampler, err := vmc.NewSampler(samplerCfg,
		vmc.WithLogger(logging.NewZapLogger(runLogger).Named("sampler")),
		vmc.WithMetrics(metrics),
		vmc.WithProgress(progress.Update),
	)
	if err != nil {
		runLogger.WithError(err).Fatal("invalid simulation parameters")
	}

	res, err := sampler.Run(ctx)
	if err != nil {
		runLogger.WithError(err).Fatal("simulation failed")
	}
	progress.Complete()

	for _, warning := range res.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	fmt.Println("Expected alpha value: 1")
	fmt.Println("Expected energy value: -1/2")
	fmt.Printf("Final optimized alpha: %.3f\n", res.FinalAlpha)
	fmt.Printf("Mean final position: %.3f (variance %.3f)\n",
		stat.Mean(res.FinalPositions, nil), stat.Variance(res.FinalPositions, nil))
	fmt.Printf("Mean local energy: %.3f (variance %.3f)\n",
		stat.Mean(res.EnergyTrajectory, nil), stat.Variance(res.EnergyTrajectory, nil))

	if err := results.WriteCSV(cfg.Output.Dir, res); err != nil {
		runLogger.WithError(err).Fatal("failed to write CSV results")
	}
	runLogger.Info("results saved", map[string]interface{}{"dir": cfg.Output.Dir})

	if cfg.Output.Database != "" {
		store, err := results.OpenStore(cfg.Output.Database)
		if err != nil {
			runLogger.WithError(err).Fatal("failed to open run archive")
		}
		runID, err := store.SaveRun(context.Background(), samplerCfg, res)
		if err != nil {
			runLogger.WithError(err).Fatal("failed to archive run")
		}
		if err := store.Close(); err != nil {
			runLogger.WithError(err).Error("failed to close run archive")
		}
		runLogger.Info("run archived", map[string]interface{}{
			"db":     cfg.Output.Database,
			"run_id": runID,
		})
	}

	if cfg.Output.Plots {
		plots := []struct {
			render func() error
			name   string
		}{
			{func() error {
				return plot.PositionHistogram(res.FinalPositions,
					filepath.Join(cfg.Output.Dir, "histogram_positions.png"))
			}, "histogram_positions.png"},
			{func() error {
				return plot.Trajectory(res.AlphaTrajectory, "Alpha",
					filepath.Join(cfg.Output.Dir, "alpha_evolution.png"))
			}, "alpha_evolution.png"},
			{func() error {
				return plot.Trajectory(res.EnergyTrajectory, "Energy",
					filepath.Join(cfg.Output.Dir, "energy_evolution.png"))
			}, "energy_evolution.png"},
		}
		for _, pl := range plots {
			if err := pl.render(); err != nil {
				runLogger.WithError(err).Fatal("failed to render plot")
			}
			runLogger.Info("plot saved", map[string]interface{}{"file": pl.name})
		}
	}
}
