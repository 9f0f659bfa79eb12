// vega - operator console for the vega quadruped.
// Relays joystick, panel and slider input to the robot's HTTP API and
// streams its telemetry to browsers (and optionally MQTT).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-vega/internal/config"
	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/auth"
	"github.com/teslashibe/go-vega/pkg/console"
	"github.com/teslashibe/go-vega/pkg/mqttbridge"
	"github.com/teslashibe/go-vega/pkg/robot"
	"github.com/teslashibe/go-vega/pkg/telemetry"
	"github.com/teslashibe/go-vega/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	issue, err := applyFlags(cfg, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	if issue != "" {
		if err := printToken(cfg, issue); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	log.InitWithOptions(log.Options{Level: cfg.Log.Level, File: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("console stopped", "err", err)
		os.Exit(1)
	}
}

// applyFlags overrides cfg with command line flags and validates the result.
// It returns the role passed to -issue-token, if any.
func applyFlags(cfg *config.Config, args []string) (string, error) {
	fs := flag.NewFlagSet("vega", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "Enable verbose debug logging")
	apiURL := fs.String("api", cfg.Robot.APIURL, "Robot control API URL")
	listen := fs.String("listen", cfg.Listen, "Console listen address")
	static := fs.String("static", cfg.StaticDir, "Directory with the browser UI")
	issue := fs.String("issue-token", "", "Print a token for the given role (viewer, controller) and exit")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	cfg.Robot.APIURL, cfg.Listen, cfg.StaticDir = *apiURL, *listen, *static
	if *debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return *issue, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := log.L()

	r := robot.NewHTTPController(cfg.Robot.APIURL,
		robot.WithTimeout(cfg.Robot.RequestTimeout),
		robot.WithTargetsPath(cfg.Robot.TargetsPath),
	)

	c, err := console.New(r, console.Config{
		Sources:        cfg.Sources,
		RequestTimeout: cfg.Robot.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	poller := telemetry.NewPoller(r, cfg.PollInterval, logger)

	var verifier *auth.Verifier
	if cfg.Auth.Enabled() {
		if verifier, err = auth.NewVerifier(cfg.Auth.Secret); err != nil {
			return err
		}
	}

	server := web.NewServer(c, web.Config{
		Addr:      cfg.Listen,
		StaticDir: cfg.StaticDir,
		Verifier:  verifier,
		Poller:    poller,
		Logger:    logger,
	})

	poller.AddDisplay(server)
	poller.AddDisplay(c)

	if cfg.MQTT.Enabled() {
		// Remote commands get their own session.
		bridge := mqttbridge.Dial(c.NewSession().Dispatcher, mqttbridge.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Prefix:   cfg.MQTT.Prefix,
			Logger:   logger,
		})
		if err := bridge.Start(ctx); err != nil {
			logger.Warn("mqtt not connected yet, retrying in background", "err", err)
		}
		defer bridge.Close()
		poller.AddDisplay(bridge)
	}

	logger.Info("vega console starting",
		"robot", cfg.Robot.APIURL,
		"listen", cfg.Listen,
		"poll", cfg.PollInterval,
		"auth", cfg.Auth.Enabled(),
		"mqtt", cfg.MQTT.Enabled(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})

	err = g.Wait()
	c.Close()
	logger.Info("vega console stopped")
	return err
}

// printToken issues a day-long token for role.
func printToken(cfg *config.Config, role string) error {
	if role != auth.RoleViewer && role != auth.RoleController {
		return fmt.Errorf("unknown role %q", role)
	}
	v, err := auth.NewVerifier(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("%w (set %s)", err, config.EnvAuthSecret)
	}
	token, err := v.Issue(role, 24*time.Hour, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
