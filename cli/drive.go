package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/benben/config"
	"go.viam.com/benben/controller"
	"go.viam.com/benben/drive"
	"go.viam.com/benben/input"
	"go.viam.com/benben/input/gamepad"
	"go.viam.com/benben/input/keyboard"
	"go.viam.com/benben/input/webstick"
	"go.viam.com/benben/logging"
	"go.viam.com/benben/transport"
	"go.viam.com/benben/transport/fake"
	"go.viam.com/benben/web"
)

// DriveAction runs every enabled input source, the drive loop, the controller and the web server
// until Ctrl-C or 'q'.
func DriveAction(c *cli.Context) (err error) {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool(driveFlagSimulate) {
		conf.Transport = config.TransportConfig{Type: fake.TypeName, Attributes: transport.AttributeMap{}}
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var out io.Writer = c.App.ErrWriter
	useKeyboard := conf.Inputs.Keyboard.Enabled
	if useKeyboard {
		restore, rawErr := keyboard.MakeRaw(int(os.Stdin.Fd()))
		if rawErr != nil {
			warningf(out, "keyboard input disabled: %v", rawErr)
			useKeyboard = false
		} else {
			defer func() {
				err = multierr.Combine(err, restore())
			}()
			out = rawTerminalWriter{out}
		}
	}

	logger, logCloser := newLogger(c, conf, out)
	defer func() {
		err = multierr.Combine(err, logCloser.Close())
	}()
	registry := logging.NewRegistry()
	transportLogger := registry.Sublogger(logger, "transport")
	controllerLogger := registry.Sublogger(logger, "controller")
	inputLogger := registry.Sublogger(logger, "input")
	driveLogger := registry.Sublogger(logger, "drive")
	webLogger := registry.Sublogger(logger, "web")
	configLogger := registry.Sublogger(logger, "config")
	if err := registry.Update(conf.Log.Levels); err != nil {
		return err
	}

	tr, err := transport.New(ctx, conf.Transport.Type, conf.Transport.Attributes, transportLogger)
	if err != nil {
		return err
	}
	ctrl := controller.New(tr, controller.Config{
		ServiceID:        conf.Vehicle.ServiceID,
		CharacteristicID: conf.Vehicle.CharacteristicID,
		SendInterval:     conf.Vehicle.SendInterval,
	}, controllerLogger)
	defer func() {
		err = multierr.Combine(err, ctrl.Close(context.Background()))
	}()
	unsubscribe := ctrl.Subscribe(func(state controller.State) {
		printf(out, "%s", stateLine(state))
	})
	defer unsubscribe()

	var sources []input.Source
	var kb *keyboard.Keyboard
	if useKeyboard {
		kb = keyboard.New(conf.Inputs.Keyboard.Hold, nil, inputLogger.Sublogger("keyboard"))
		sources = append(sources, kb)
	}
	if conf.Inputs.Gamepad.Enabled {
		gp, gpErr := gamepad.Open(gamepad.Config{
			Device:  conf.Inputs.Gamepad.Device,
			AxisMin: conf.Inputs.Gamepad.AxisMin,
			AxisMax: conf.Inputs.Gamepad.AxisMax,
		}, inputLogger.Sublogger("gamepad"))
		if gpErr != nil {
			logger.Warnw("gamepad input disabled", "error", gpErr)
		} else {
			defer func() {
				err = multierr.Combine(err, gp.Close())
			}()
			sources = append(sources, gp)
		}
	}
	stick := webstick.New("touch")
	if conf.Inputs.Web.Enabled {
		sources = append(sources, stick)
	}

	loop := drive.NewLoop(sources, ctrl, conf.Mixer, conf.Inputs.TickRate, nil, driveLogger)

	if conf.ConfigFilePath != "" {
		watcher, watchErr := config.NewWatcher(conf.ConfigFilePath, 0, func(newConf *config.Config) {
			loop.SetMixerConfig(newConf.Mixer)
			if err := registry.Update(newConf.Log.Levels); err != nil {
				configLogger.Warnw("failed to apply log levels", "error", err)
			}
		}, configLogger)
		if watchErr != nil {
			logger.Warnw("config changes will not be applied", "error", watchErr)
		} else {
			defer func() {
				err = multierr.Combine(err, watcher.Close())
			}()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	connect := func() error {
		connectCtx := gctx
		if conf.Vehicle.ConnectTimeout > 0 {
			var connectCancel func()
			connectCtx, connectCancel = context.WithTimeout(gctx, conf.Vehicle.ConnectTimeout)
			defer connectCancel()
		}
		if err := ctrl.Connect(connectCtx); err != nil {
			controllerLogger.Warnw("connect failed", "error", err)
		}
		return nil
	}

	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})

	if conf.Inputs.Web.Enabled {
		server := &http.Server{
			Addr:              conf.Inputs.Web.Listen,
			Handler:           web.NewServer(ctrl, loop, stick, web.Options{ConnectTimeout: conf.Vehicle.ConnectTimeout}, webLogger),
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		}
		g.Go(func() error {
			webLogger.Infow("serving", "address", "http://"+conf.Inputs.Web.Listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "web server failed")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return server.Shutdown(context.Background())
		})
	}

	if kb != nil {
		printf(out, "w/a/s/d move, left/right rotate, c connect, q quit")
		g.Go(func() error {
			return kb.Run(gctx, os.Stdin)
		})
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case cmd := <-kb.Commands():
					switch cmd {
					case 'c':
						g.Go(connect)
					case 'q':
						cancel()
						return nil
					}
				}
			}
		})
	}

	if c.Bool(driveFlagConnect) {
		g.Go(connect)
	}

	return g.Wait()
}
