package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moosethebrown/tello-net-bridge/adapters/mqtt"
	"github.com/moosethebrown/tello-net-bridge/adapters/udp"
	"github.com/moosethebrown/tello-net-bridge/config"
	"github.com/moosethebrown/tello-net-bridge/core"
	"github.com/moosethebrown/tello-net-bridge/drone"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

type App struct {
	cfg         *config.Config
	logger      *zerolog.Logger
	logFile     *lumberjack.Logger
	client      *drone.Client
	udpAdapter  *udp.Adapter
	mqttAdapter *mqtt.Adapter
	theCore     *core.Core
	group       *errgroup.Group
	ctx         context.Context
}

func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg: cfg,
	}

	app.logger, app.logFile = newLogger(cfg)
	app.init()

	return app
}

func newLogger(cfg *config.Config) (*zerolog.Logger, *lumberjack.Logger) {
	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Invalid logLevel: %s, error: %s\n", cfg.LogLevel, err.Error())
		logLevel = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	var logFile *lumberjack.Logger
	if cfg.LogFile != nil {
		logFile = &lumberjack.Logger{
			Filename:   cfg.LogFile.Filename,
			MaxSize:    cfg.LogFile.MaxSize,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxAge,
			Compress:   cfg.LogFile.Compress,
		}
		out = logFile
	}

	logger := zerolog.New(out).With().Timestamp().Logger().Level(logLevel)
	return &logger, logFile
}

func (app *App) Start() {
	app.group, app.ctx = errgroup.WithContext(context.Background())

	app.group.Go(app.udpAdapter.Run)

	if app.theCore != nil {
		app.group.Go(func() error {
			app.theCore.Run()
			return nil
		})
	}

	if app.mqttAdapter != nil {
		app.group.Go(func() error {
			err := app.mqttAdapter.Run()
			if err != nil {
				return errors.Wrap(err, "mqtt adapter exited unexpectedly")
			}
			return nil
		})
	}
}

// Done is closed when a component fails.
func (app *App) Done() <-chan struct{} {
	return app.ctx.Done()
}

func (app *App) Stop() error {
	if app.mqttAdapter != nil {
		app.mqttAdapter.Stop()
	}
	if app.theCore != nil {
		app.theCore.Stop()
	}
	app.udpAdapter.Stop()
	err := app.group.Wait()

	if app.logFile != nil {
		app.logFile.Close()
	}
	return err
}

// RunScript waits for the drone socket and sends the plan written in script.
func (app *App) RunScript(script string, readyTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(app.ctx, readyTimeout)
	defer cancel()
	if err := app.client.WaitReady(ctx); err != nil {
		return errors.Wrapf(drone.ErrNotReady, "socket not bound within %s", readyTimeout)
	}

	plan, err := drone.ParsePlan(script)
	if err != nil {
		return err
	}

	app.logger.Info().Strs("commands", plan.Commands()).Msg("running script")
	return app.client.Execute(plan)
}

func (app *App) init() {
	droneLogger := app.logger.With().Str("component", "drone").Logger()
	app.client = drone.NewClient(drone.Config{
		Host: app.cfg.Drone.Host,
		Port: app.cfg.Drone.Port,
	}, nil, drone.WithLogger(&droneLogger))

	udpLogger := app.logger.With().Str("component", "udp").Logger()
	app.udpAdapter = udp.NewAdapter(app.client.Host(), app.client.Port(),
		app.cfg.Drone.LocalAddr,
		app.client,
		app.cfg.Drone.QueueSize,
		&udpLogger)
	app.client.SetTransport(app.udpAdapter)

	if app.cfg.Mqtt == nil {
		return
	}

	coreLogger := app.logger.With().Str("component", "core").Logger()
	app.theCore = core.NewCore(app.client, nil,
		app.cfg.AnnounceInterval, app.cfg.Drone.LandOnNetLoss, &coreLogger)

	mqttLogger := app.logger.With().Str("component", "mqtt").Logger()
	app.mqttAdapter = mqtt.NewAdapter(app.cfg.Mqtt.Broker,
		time.Duration(app.cfg.Mqtt.ConnTimeout)*time.Millisecond,
		app.cfg.Mqtt.Username,
		app.cfg.Mqtt.Password,
		app.cfg.Mqtt.DroneId,
		app.cfg.Mqtt.AnnounceTopic,
		time.Duration(app.cfg.Mqtt.AnnounceTimeout)*time.Millisecond,
		time.Duration(app.cfg.Mqtt.DisconnectTimeout)*time.Millisecond,
		app.cfg.Mqtt.CertCheck,
		app.theCore,
		&mqttLogger)
	app.theCore.SetMqttHandler(app.mqttAdapter)
}
