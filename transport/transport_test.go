package transport

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/benben/logging"
)

func TestParseUUID16(t *testing.T) {
	for _, input := range []string{"0xAE3A", "0xae3a", "ae3a", " AE3A ", "0XAE3A"} {
		parsed, err := ParseUUID16(input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, DefaultServiceID)
	}

	_, err := ParseUUID16("0x1ae3a")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseUUID16("service")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, DefaultFilterServiceID.String(), test.ShouldEqual, "0xaf30")
	test.That(t, UUID16(0x1f).String(), test.ShouldEqual, "0x001f")

	var u UUID16
	test.That(t, u.UnmarshalText([]byte("AE3B")), test.ShouldBeNil)
	test.That(t, u, test.ShouldEqual, DefaultCharacteristicID)
}

type testConfig struct {
	Service UUID16        `json:"service"`
	Delay   time.Duration `json:"delay"`
	Name    string        `json:"name"`
}

func (conf *testConfig) Validate(path string) error {
	if conf.Name == "" {
		return errors.Errorf("%s.name: required", path)
	}
	return nil
}

type testTransport struct {
	Transport
	conf *testConfig
}

func TestRegistry(t *testing.T) {
	Register("registry-test", Registration[*testConfig]{
		Constructor: func(ctx context.Context, conf *testConfig, logger logging.Logger) (Transport, error) {
			return &testTransport{conf: conf}, nil
		},
	})
	test.That(t, RegisteredTypes(), test.ShouldContain, "registry-test")

	logger := logging.NewTestLogger(t)
	tr, err := New(context.Background(), "registry-test", AttributeMap{
		"service": "0xAE3A",
		"delay":   "50ms",
		"name":    "car",
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	conf := tr.(*testTransport).conf
	test.That(t, conf.Service, test.ShouldEqual, DefaultServiceID)
	test.That(t, conf.Delay, test.ShouldEqual, 50*time.Millisecond)

	err = ValidateAttributes("registry-test", AttributeMap{}, "transport.attributes")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "transport.attributes.name")

	err = ValidateAttributes("registry-test", AttributeMap{"name": "car", "colour": "red"}, "transport.attributes")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(context.Background(), "carrier-pigeon", nil, logger)
	test.That(t, errors.Is(err, ErrUnknownType), test.ShouldBeTrue)

	test.That(t, func() {
		Register("registry-test", Registration[*testConfig]{
			Constructor: func(ctx context.Context, conf *testConfig, logger logging.Logger) (Transport, error) {
				return nil, nil
			},
		})
	}, test.ShouldPanic)
}
