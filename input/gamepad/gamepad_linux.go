//go:build linux

package gamepad

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/viamrobotics/evdev"

	"go.viam.com/benben/input"
	"go.viam.com/benben/logging"
	"go.viam.com/benben/utils"
)

var absoluteAxes = map[evdev.AbsoluteType]Axis{
	evdev.AbsoluteX:  AxisLeftX,
	evdev.AbsoluteY:  AxisLeftY,
	evdev.AbsoluteRX: AxisRightX,
	evdev.AbsoluteRY: AxisRightY,
}

// Gamepad is an input source reading a Linux event device.
type Gamepad struct {
	dev     *evdev.Evdev
	name    string
	sticks  *sticks
	workers utils.StoppableWorkers
	logger  logging.Logger
}

// Open opens the configured device, or the first gamepad found, and starts reading it.
func Open(conf Config, logger logging.Logger) (*Gamepad, error) {
	dev, err := openDevice(conf.Device, logger)
	if err != nil {
		return nil, err
	}

	g := &Gamepad{
		dev:    dev,
		name:   strings.TrimSpace(dev.Name()),
		sticks: newSticks(conf),
		logger: logger,
	}
	for code, info := range dev.AbsoluteTypes() {
		if axis, ok := absoluteAxes[code]; ok {
			g.sticks.setRange(axis, info.Min, info.Max)
		}
	}
	logger.Infow("using gamepad", "name", g.name)

	g.workers = utils.NewStoppableWorkers(g.dispatch)
	return g, nil
}

func openDevice(path string, logger logging.Logger) (*evdev.Evdev, error) {
	if path != "" {
		dev, err := evdev.OpenFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open gamepad %q", path)
		}
		return dev, nil
	}

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	for _, candidate := range paths {
		dev, err := evdev.OpenFile(candidate)
		if err != nil {
			logger.Debugw("skipping input device", "path", candidate, "error", err)
			continue
		}
		if isGamepad(dev.Name(), stickAxes(dev)) {
			return dev, nil
		}
		if err := dev.Close(); err != nil {
			logger.Debugw("failed to close input device", "path", candidate, "error", err)
		}
	}
	return nil, errors.New("no gamepad found")
}

// stickAxes reports which stick axes dev has.
func stickAxes(dev *evdev.Evdev) map[Axis]bool {
	axes := map[Axis]bool{}
	for code := range dev.AbsoluteTypes() {
		if axis, ok := absoluteAxes[code]; ok {
			axes[axis] = true
		}
	}
	return axes
}

func (g *Gamepad) dispatch(ctx context.Context) {
	events := g.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || ev == nil {
				if ctx.Err() == nil {
					g.logger.Warnw("gamepad disconnected", "name", g.name)
				}
				g.sticks.disconnect()
				return
			}
			if ev.Event.Type != evdev.EventAbsolute {
				continue
			}
			if axis, ok := absoluteAxes[evdev.AbsoluteType(ev.Event.Code)]; ok {
				g.sticks.set(axis, ev.Event.Value)
			}
		}
	}
}

// Name returns the source name.
func (g *Gamepad) Name() string {
	return "gamepad"
}

// Read returns the current stick positions.
func (g *Gamepad) Read(ctx context.Context) (input.Candidate, error) {
	return g.sticks.read(ctx)
}

// Close stops reading and closes the device.
func (g *Gamepad) Close() error {
	g.workers.Stop()
	return g.dev.Close()
}
