package inject

import (
	"context"

	"go.viam.com/benben/transport"
)

// Transport is an injectable transport.
type Transport struct {
	transport.Transport
	DiscoverAndConnectFunc func(ctx context.Context, serviceID, characteristicID transport.UUID16) (transport.Characteristic, error)
}

// DiscoverAndConnect calls the injected DiscoverAndConnect or the real version.
func (t *Transport) DiscoverAndConnect(
	ctx context.Context,
	serviceID, characteristicID transport.UUID16,
) (transport.Characteristic, error) {
	if t.DiscoverAndConnectFunc == nil {
		return t.Transport.DiscoverAndConnect(ctx, serviceID, characteristicID)
	}
	return t.DiscoverAndConnectFunc(ctx, serviceID, characteristicID)
}

// Characteristic is an injectable characteristic.
type Characteristic struct {
	transport.Characteristic
	WriteFunc func(ctx context.Context, frame []byte) error
	CloseFunc func() error
}

// Write calls the injected Write or the real version.
func (c *Characteristic) Write(ctx context.Context, frame []byte) error {
	if c.WriteFunc == nil {
		return c.Characteristic.Write(ctx, frame)
	}
	return c.WriteFunc(ctx, frame)
}

// Close calls the injected Close or the real version.
func (c *Characteristic) Close() error {
	if c.CloseFunc == nil {
		return c.Characteristic.Close()
	}
	return c.CloseFunc()
}
