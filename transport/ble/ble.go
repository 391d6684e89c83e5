// Package ble reaches the vehicle over Bluetooth Low Energy using the host's default adapter.
package ble

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"tinygo.org/x/bluetooth"

	"go.viam.com/benben/logging"
	"go.viam.com/benben/transport"
)

// TypeName is the transport type this package registers under.
const TypeName = "ble"

func init() {
	transport.Register(TypeName, transport.Registration[*Config]{
		Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (transport.Transport, error) {
			return New(*conf, logger), nil
		},
	})
}

// Config selects which advertisement identifies the vehicle and how frames are written.
type Config struct {
	// FilterService is the service UUID the vehicle advertises. Defaults to 0xAF30.
	FilterService transport.UUID16 `json:"filter_service"`
	// WithResponse makes every write wait for a link layer acknowledgment.
	WithResponse bool `json:"with_response"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.FilterService == 0 {
		conf.FilterService = transport.DefaultFilterServiceID
	}
	return nil
}

// Transport scans for, and connects to, the vehicle.
type Transport struct {
	conf    Config
	adapter *bluetooth.Adapter
	logger  logging.Logger

	enableOnce sync.Once
	enableErr  error
}

// New returns a BLE transport using the default adapter. The adapter is enabled on first use.
func New(conf Config, logger logging.Logger) *Transport {
	if conf.FilterService == 0 {
		conf.FilterService = transport.DefaultFilterServiceID
	}
	return &Transport{conf: conf, adapter: bluetooth.DefaultAdapter, logger: logger}
}

func toUUID(u transport.UUID16) bluetooth.UUID {
	return bluetooth.New16BitUUID(uint16(u))
}

// DiscoverAndConnect scans until a device advertising the filter service shows up, connects to it
// and opens the requested characteristic. Cancelling ctx stops the scan.
func (t *Transport) DiscoverAndConnect(
	ctx context.Context,
	serviceID, characteristicID transport.UUID16,
) (transport.Characteristic, error) {
	t.enableOnce.Do(func() {
		t.enableErr = t.adapter.Enable()
	})
	if t.enableErr != nil {
		return nil, errors.Wrap(t.enableErr, "failed to enable bluetooth adapter")
	}

	found, err := t.scan(ctx)
	if err != nil {
		return nil, err
	}
	t.logger.CInfow(ctx, "found vehicle", "address", found.Address.String(), "name", found.LocalName(), "rssi", found.RSSI)

	device, err := t.adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", found.Address.String())
	}
	disconnect := func() error { return device.Disconnect() }

	services, err := device.DiscoverServices([]bluetooth.UUID{toUUID(serviceID)})
	if err == nil && len(services) == 0 {
		err = errors.Errorf("service %s not found", serviceID)
	}
	if err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "service discovery failed"), disconnect())
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{toUUID(characteristicID)})
	if err == nil && len(chars) == 0 {
		err = errors.Errorf("characteristic %s not found", characteristicID)
	}
	if err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "characteristic discovery failed"), disconnect())
	}

	return &characteristic{
		char:         chars[0],
		withResponse: t.conf.WithResponse,
		disconnect:   disconnect,
	}, nil
}

// scan blocks until a matching advertisement arrives or ctx is done.
func (t *Transport) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	filter := toUUID(t.conf.FilterService)
	results := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	goutils.PanicCapturingGo(func() {
		scanErr <- t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !result.HasServiceUUID(filter) {
				return
			}
			select {
			case results <- result:
				if err := adapter.StopScan(); err != nil {
					t.logger.Debugw("failed to stop scan", "error", err)
				}
			default:
			}
		})
	})

	select {
	case result := <-results:
		<-scanErr
		return result, nil
	case err := <-scanErr:
		if err == nil {
			err = errors.New("scan stopped before the vehicle was found")
		}
		return bluetooth.ScanResult{}, errors.Wrap(err, "scan failed")
	case <-ctx.Done():
		if err := t.adapter.StopScan(); err != nil {
			t.logger.Debugw("failed to stop scan", "error", err)
		}
		<-scanErr
		return bluetooth.ScanResult{}, ctx.Err()
	}
}

type characteristic struct {
	char         bluetooth.DeviceCharacteristic
	withResponse bool

	closeOnce  sync.Once
	disconnect func() error
}

func (c *characteristic) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	if c.withResponse {
		_, err = c.char.Write(frame)
	} else {
		_, err = c.char.WriteWithoutResponse(frame)
	}
	return err
}

func (c *characteristic) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.disconnect()
	})
	return err
}
