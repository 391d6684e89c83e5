// Package config defines the benben configuration file and how it is read, validated and watched.
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/benben/logging"
	"go.viam.com/benben/mixer"
	"go.viam.com/benben/transport"
)

// Config is the whole benben configuration.
type Config struct {
	Vehicle   Vehicle         `json:"vehicle"`
	Mixer     mixer.Config    `json:"mixer"`
	Transport TransportConfig `json:"transport"`
	Inputs    Inputs          `json:"inputs"`
	Log       Log             `json:"log"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// Vehicle identifies the vehicle's command characteristic and how often to write it.
type Vehicle struct {
	ServiceID        transport.UUID16 `json:"service_id"`
	CharacteristicID transport.UUID16 `json:"characteristic_id"`
	SendInterval     time.Duration    `json:"send_interval"`
	// ConnectTimeout bounds discovery. Zero waits until the user gives up.
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// TransportConfig picks a registered transport and passes it its attributes.
type TransportConfig struct {
	Type       string                 `json:"type"`
	Attributes transport.AttributeMap `json:"attributes"`
}

// Inputs configures the input sources and the processing loop.
type Inputs struct {
	TickRate float64  `json:"tick_rate"`
	Keyboard Keyboard `json:"keyboard"`
	Gamepad  Gamepad  `json:"gamepad"`
	Web      Web      `json:"web"`
}

// Keyboard configures terminal key input.
type Keyboard struct {
	Enabled bool `json:"enabled"`
	// Hold is how long a key counts as pressed after the terminal last reported it.
	Hold time.Duration `json:"hold"`
}

// Gamepad configures the evdev gamepad source.
type Gamepad struct {
	Enabled bool `json:"enabled"`
	// Device is an event device path. Empty picks the first device that looks like a gamepad.
	Device  string `json:"device"`
	AxisMin int32  `json:"axis_min"`
	AxisMax int32  `json:"axis_max"`
}

// Web configures the HTTP status and touch stick server.
type Web struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"`
}

// Log configures logging.
type Log struct {
	Level  logging.Level                 `json:"level"`
	File   *logging.FileAppenderConfig   `json:"file"`
	Levels []logging.LoggerPatternConfig `json:"levels"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Vehicle: Vehicle{
			ServiceID:        transport.DefaultServiceID,
			CharacteristicID: transport.DefaultCharacteristicID,
			SendInterval:     50 * time.Millisecond,
		},
		Mixer:     mixer.DefaultConfig(),
		Transport: TransportConfig{Type: "ble", Attributes: transport.AttributeMap{}},
		Inputs: Inputs{
			TickRate: 60,
			Keyboard: Keyboard{Enabled: true, Hold: 500 * time.Millisecond},
			Gamepad:  Gamepad{Enabled: true, AxisMin: -32768, AxisMax: 32767},
			Web:      Web{Enabled: true, Listen: "localhost:8080"},
		},
		Log: Log{Level: logging.INFO},
	}
}

// Validate returns the first problem found, prefixed with the path of the offending field.
func (conf *Config) Validate() error {
	if err := conf.Vehicle.Validate("vehicle"); err != nil {
		return err
	}
	if err := conf.Mixer.Validate("mixer"); err != nil {
		return err
	}
	if err := conf.Transport.Validate("transport"); err != nil {
		return err
	}
	if err := conf.Inputs.Validate("inputs"); err != nil {
		return err
	}
	return conf.Log.Validate("log")
}

// Validate ensures all parts of the config are valid.
func (v *Vehicle) Validate(path string) error {
	if v.ServiceID == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "service_id")
	}
	if v.CharacteristicID == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "characteristic_id")
	}
	if v.SendInterval <= 0 {
		return goutils.NewConfigValidationError(path+".send_interval", errors.New("must be positive"))
	}
	if v.ConnectTimeout < 0 {
		return goutils.NewConfigValidationError(path+".connect_timeout", errors.New("must not be negative"))
	}
	return nil
}

// Validate ensures the transport type is known and its attributes decode.
func (tc *TransportConfig) Validate(path string) error {
	if tc.Type == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "type")
	}
	return transport.ValidateAttributes(tc.Type, tc.Attributes, path+".attributes")
}

// Validate ensures all parts of the config are valid.
func (in *Inputs) Validate(path string) error {
	if in.TickRate <= 0 || in.TickRate > 1000 {
		return goutils.NewConfigValidationError(path+".tick_rate", errors.Errorf("must be in (0, 1000], got %v", in.TickRate))
	}
	if in.Keyboard.Hold <= 0 {
		return goutils.NewConfigValidationError(path+".keyboard.hold", errors.New("must be positive"))
	}
	if in.Gamepad.AxisMax <= in.Gamepad.AxisMin {
		return goutils.NewConfigValidationError(path+".gamepad",
			errors.Errorf("axis_max (%d) must be greater than axis_min (%d)", in.Gamepad.AxisMax, in.Gamepad.AxisMin))
	}
	if in.Web.Enabled && in.Web.Listen == "" {
		return goutils.NewConfigValidationFieldRequiredError(path+".web", "listen")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (l *Log) Validate(path string) error {
	if l.File != nil && l.File.Filename == "" {
		return goutils.NewConfigValidationFieldRequiredError(path+".file", "filename")
	}
	for idx, lpc := range l.Levels {
		if err := lpc.Validate(fmt.Sprintf("%s.levels.%d", path, idx)); err != nil {
			return err
		}
	}
	return nil
}
