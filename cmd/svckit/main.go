// Package main is the entry point for svckit, a host for running a
// process as a Windows service plus the management commands to
// install, remove and control the service entry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"

	"svckit/internal/config"
	"svckit/internal/heartbeat"
	"svckit/internal/logger"
	"svckit/internal/service"
	"svckit/internal/svcinfo"
	"svckit/internal/winsvc"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const startupErrorLogDir = "log/svckit"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: svckit [flags] <command>

Commands:
  install   Register this executable as a service
  remove    Stop the service and delete its entry
  start     Ask the service control manager to launch the service
  stop      Send a stop control to the service
  status    Print the current service state
  info      Print the stored service configuration
  run       Run the agent (foreground, or as the service entry point)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		configPath  = flag.String("config", "conf/svckit.json", "Path to configuration file")
		stopTimeout = flag.Duration("timeout", 0, "Override the configured stop timeout for remove")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("svckit %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	command := flag.Arg(0)
	if command == "" {
		usage()
		os.Exit(2)
	}

	// Under the SCM the working directory is System32. The install
	// command bakes an absolute config path into the launch command;
	// when we see one, anchor the working directory to the install
	// base (one level above the conf directory) so relative log paths
	// land next to the binary instead.
	if filepath.IsAbs(*configPath) {
		basePath := filepath.Dir(filepath.Dir(*configPath))
		if err := os.Chdir(basePath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to change directory to %s: %v\n", basePath, err)
			os.Exit(1)
		}
	}

	// Suppress console output before anything logs when there is no
	// console to write to.
	probe := service.NewService("", nil)
	if probe.IsService() {
		logger.SetServiceMode(true)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		reportStartupFailure(command, err)
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		reportStartupFailure(command, err)
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithComponent("main")
	log.Info().
		Str("version", version).
		Str("command", command).
		Str("config", *configPath).
		Msg("svckit starting")

	if err := dispatch(command, cfg, *configPath, *stopTimeout); err != nil {
		log.Error().Err(err).Str("command", command).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

// reportStartupFailure makes early failures visible when running under
// the SCM, where stderr goes nowhere.
func reportStartupFailure(command string, err error) {
	if command != "run" {
		return
	}
	service.ReportStartupError("SvcKitAgent", err)
	service.WriteStartupErrorFile(startupErrorLogDir, err)
}

func dispatch(command string, cfg *config.Config, configPath string, stopTimeout time.Duration) error {
	name := cfg.Service.Name

	switch command {
	case "install":
		startType, err := winsvc.ParseStartType(cfg.Service.StartType)
		if err != nil {
			return err
		}
		absConfig, err := filepath.Abs(configPath)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		if err := service.Install(service.InstallOptions{
			Name:        name,
			DisplayName: cfg.Service.DisplayName,
			StartType:   startType,
			Account:     cfg.Service.Account,
			ConfigPath:  absConfig,
		}); err != nil {
			return err
		}
		fmt.Printf("Installed service %s\n", name)
		return nil

	case "remove":
		timeout := cfg.Service.StopTimeout
		if stopTimeout > 0 {
			timeout = stopTimeout
		}
		if err := service.Remove(name, timeout); err != nil {
			return err
		}
		fmt.Printf("Removed service %s\n", name)
		return nil

	case "start":
		if err := service.Start(name); err != nil {
			return err
		}
		fmt.Printf("Started service %s\n", name)
		return nil

	case "stop":
		status, err := service.SendStop(name)
		if err != nil {
			return err
		}
		fmt.Printf("Service %s: %s\n", name, status.State())
		return nil

	case "status":
		status, err := service.QueryStatus(name)
		if err != nil {
			return err
		}
		fmt.Printf("Service %s: %s (exit %s)\n", name, status.State(), status.ExitCode())
		return nil

	case "info":
		info, err := svcinfo.Query(name)
		if err != nil {
			return err
		}
		fmt.Printf("Name:         %s\n", info.Name)
		fmt.Printf("Display name: %s\n", info.DisplayName)
		fmt.Printf("State:        %s\n", info.State)
		fmt.Printf("Start mode:   %s\n", info.StartMode)
		fmt.Printf("Binary path:  %s\n", info.PathName)
		fmt.Printf("Account:      %s\n", info.StartName)
		return nil

	case "run":
		svc := service.NewService(name, func(ctx context.Context) error {
			return run(ctx, cfg, configPath)
		})
		if err := svc.Run(context.Background()); err != nil {
			service.ReportStartupError(name, err)
			service.WriteStartupErrorFile(startupErrorLogDir, err)
			return err
		}
		log := logger.WithComponent("main")
		log.Info().Msg("svckit stopped")
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// run is the agent body, executed in the foreground or on the SCM
// worker thread. It blocks until the context is cancelled by a stop
// request or signal.
func run(ctx context.Context, cfg *config.Config, configPath string) error {
	log := logger.WithComponent("main")

	if cfg.Heartbeat.Enabled {
		sampler, err := heartbeat.NewProcessSampler()
		if err != nil {
			log.Warn().Err(err).Msg("Heartbeat disabled: cannot sample current process")
		} else {
			hb := heartbeat.New(sampler, clock.New(), cfg.Heartbeat.Interval)
			if err := hb.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to start heartbeat")
			} else {
				defer hb.Stop()
				log.Info().Dur("interval", cfg.Heartbeat.Interval).Msg("Heartbeat started")
			}
		}
	}

	watcher, err := config.NewLoggingWatcher(configPath, func(lc *logger.Config) {
		if err := logger.Init(*lc); err != nil {
			log.Error().Err(err).Msg("Failed to apply logging configuration")
			return
		}
		log.Info().Msg("Logging configuration reloaded")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher, hot reload disabled")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
	} else {
		defer func() {
			if err := watcher.Stop(); err != nil {
				log.Error().Err(err).Msg("Error stopping config watcher")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")
	return nil
}
