// cmd/physsim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-rtsphysics/pkg/config"
	"github.com/opd-ai/go-rtsphysics/pkg/engine"
	"github.com/opd-ai/go-rtsphysics/pkg/entity"
	"github.com/opd-ai/go-rtsphysics/pkg/event"
	"github.com/opd-ai/go-rtsphysics/pkg/health"
	"github.com/opd-ai/go-rtsphysics/pkg/logging"
	"github.com/opd-ai/go-rtsphysics/pkg/physics"
	"github.com/opd-ai/go-rtsphysics/pkg/terrain"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	templatePath := flag.String("templates", "", "Path to physics template YAML file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	frames := flag.Int("frames", 300, "Number of logic frames to simulate")
	healthAddr := flag.String("health", "", "Address to serve health probes on, empty to disable")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	// Load configuration
	var cfg *config.GlobalConfig

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
	}

	// Apply environment variable overrides
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}

	var templates *config.TemplateSet
	if *templatePath != "" {
		var err error
		if templates, err = config.LoadTemplates(*templatePath); err != nil {
			logger.Error(ctx, "Failed to load physics templates", err,
				"template_path", *templatePath,
			)
			os.Exit(1)
		}
	}

	sim, err := engine.NewSimulation(cfg, terrain.Flat{Height: 0}, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		os.Exit(1)
	}
	logEvents(sim.EventBus, logger)

	tank, err := spawnDemoScene(sim, templates)
	if err != nil {
		logger.Error(ctx, "Failed to spawn demo scene", err)
		if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, config.ErrUnknownTemplate) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var completed atomic.Uint32
	if *healthAddr != "" {
		healthServer := startHealthServer(ctx, *healthAddr, newHealthChecker(sim, &completed), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthServer.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "Health check server shutdown failed", err)
			}
		}()
	}

	logger.Info(ctx, "Starting simulation",
		"frames", *frames,
		"fps", cfg.LogicFramesPerSecond,
		"objects", sim.Registry.Len(),
	)
	for i := 0; i < *frames; i++ {
		if runCtx.Err() != nil {
			logger.Info(ctx, "Simulation interrupted", "frame", sim.Frame())
			break
		}
		// The tank keeps driving north until the demo is over.
		if sim.Registry.Find(tank.Object().ID()) != nil {
			tank.ApplyMotiveForce(mgl32.Vec3{0, 0.5 * tank.Mass(), 0})
		}
		sim.Step()
		completed.Store(sim.Frame())
	}

	crc, err := sim.CRC()
	if err != nil {
		logger.Error(ctx, "Failed to checksum simulation", err)
		os.Exit(1)
	}
	if *healthAddr == "" {
		// Without a probe server, report the final integrity once.
		status := newHealthChecker(sim, &completed).CheckHealth(ctx)
		for name, c := range status.Checks {
			if c.Status != "healthy" && name != "progress" {
				logger.Warn(ctx, "Integrity check failed", "check", name, "message", c.Message)
			}
		}
	}
	logger.Info(ctx, "Simulation finished",
		"frame", sim.Frame(),
		"objects", sim.Registry.Len(),
		"crc", crc,
	)
}

// template returns the named template from set, or fallback when no template
// file was given.
func template(set *config.TemplateSet, name string, fallback func(*config.PhysicsTemplate)) (*config.PhysicsTemplate, error) {
	if set != nil {
		return set.Get(name)
	}
	t := config.DefaultPhysicsTemplate()
	t.Name = name
	fallback(t)
	return t, nil
}

// spawnDemoScene drops a crate, bounces a barrel and lines a tank up to run
// over a car. It returns the tank so the caller can drive it.
func spawnDemoScene(sim *engine.Simulation, set *config.TemplateSet) (*physics.Behavior, error) {
	crate, err := template(set, "Crate", func(t *config.PhysicsTemplate) { t.Mass = 5 })
	if err != nil {
		return nil, err
	}
	barrel, err := template(set, "Barrel", func(t *config.PhysicsTemplate) {
		t.Mass = 2
		t.AllowBouncing = true
	})
	if err != nil {
		return nil, err
	}
	tankTmpl, err := template(set, "Tank", func(t *config.PhysicsTemplate) { t.Mass = 80 })
	if err != nil {
		return nil, err
	}
	car, err := template(set, "Car", func(t *config.PhysicsTemplate) { t.Mass = 10 })
	if err != nil {
		return nil, err
	}

	specs := []engine.SpawnSpec{
		{
			Object: entity.ObjectSpec{
				Name:     "crate",
				Position: mgl32.Vec3{-40, 0, 60},
				Geometry: entity.NewCylinder(3, 3),
				Body:     entity.NewBasicBody(50),
			},
			Template: crate,
		},
		{
			Object: entity.ObjectSpec{
				Name:     "barrel",
				Position: mgl32.Vec3{40, 0, 30},
				Geometry: entity.NewCylinder(1.5, 3),
				Body:     entity.NewBasicBody(20),
			},
			Template:    barrel,
			Velocity:    mgl32.Vec3{0.5, 0, 0},
			BounceSound: "BarrelBounce",
		},
		{
			Object: entity.ObjectSpec{
				Name:           "car",
				Kind:           entity.KindVehicle,
				Team:           2,
				Position:       mgl32.Vec3{0, 30, 0},
				Geometry:       entity.NewCylinder(4, 2),
				CrushableLevel: 1,
				Body:           entity.NewBasicBody(100),
			},
			Template: car,
		},
		{
			Object: entity.ObjectSpec{
				Name:         "tank",
				Kind:         entity.KindVehicle,
				Team:         1,
				Position:     mgl32.Vec3{0, 0, 0},
				Yaw:          mgl32.DegToRad(90),
				Geometry:     entity.NewCylinder(5, 3),
				CrusherLevel: 2,
				Body:         entity.NewBasicBody(500),
			},
			Template: tankTmpl,
		},
	}

	var tank *physics.Behavior
	for _, spec := range specs {
		obj, b, err := sim.Spawn(spec)
		if err != nil {
			return nil, err
		}
		if obj.Name() == "tank" {
			tank = b
		}
	}
	return tank, nil
}

func logEvents(bus *event.Bus, logger *logging.Logger) {
	objectEvents := []event.Type{
		event.ObjectLanded,
		event.ObjectCrushed,
		event.ObjectKilled,
		event.ObjectDestroyed,
		event.ObjectCaptured,
	}
	for _, typ := range objectEvents {
		bus.Subscribe(typ, func(e event.Event) {
			ev := e.(*event.ObjectEvent)
			logger.Info(context.Background(), "Object event",
				"type", string(ev.GetType()),
				"object", ev.ObjectID,
				"other", ev.OtherID,
				"position", ev.Position,
			)
		})
	}
	bus.Subscribe(event.BounceSound, func(e event.Event) {
		ev := e.(*event.SoundEvent)
		logger.Info(context.Background(), "Bounce sound",
			"object", ev.ObjectID,
			"sound", ev.Sound,
			"volume", ev.Volume,
		)
	})
	bus.Subscribe(event.WeaponFired, func(e event.Event) {
		ev := e.(*event.WeaponEvent)
		logger.Info(context.Background(), "Weapon fired",
			"weapon", ev.Weapon,
			"source", ev.SourceID,
			"victims", len(ev.Victims),
		)
	})
}

func newHealthChecker(sim *engine.Simulation, completed *atomic.Uint32) *health.HealthChecker {
	states := func() []health.BodyState {
		var out []health.BodyState
		sim.VisitBodies(func(b *physics.Behavior) {
			out = append(out, health.BodyState{
				ID:       uint32(b.Object().ID()),
				Position: b.Object().Position(),
				Velocity: b.Velocity(),
			})
		})
		return out
	}

	hc := health.NewHealthChecker()
	hc.AddCheck(health.NewFiniteStateCheck(states))
	hc.AddCheck(health.NewWorldBoundsCheck(sim.Config.WorldSize, states))
	hc.AddCheck(health.NewProgressCheck(completed.Load))
	hc.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))
	return hc
}

func startHealthServer(ctx context.Context, addr string, hc *health.HealthChecker, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hc.LivenessHandler)
	mux.HandleFunc("/ready", hc.ReadinessHandler)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return srv
}
