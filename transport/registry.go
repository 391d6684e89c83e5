package transport

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/benben/logging"
)

// AttributeMap is the raw, type specific part of the transport config.
type AttributeMap map[string]interface{}

// ConfigValidator is implemented by every transport config.
type ConfigValidator interface {
	Validate(path string) error
}

// Create builds a transport from its native config.
type Create[ConfigT ConfigValidator] func(ctx context.Context, conf ConfigT, logger logging.Logger) (Transport, error)

// A Registration stores how to build one type of transport.
type Registration[ConfigT ConfigValidator] struct {
	Constructor Create[ConfigT]

	// AttributeMapConverter turns raw attributes into ConfigT. Defaults to TransformAttributeMap.
	AttributeMapConverter func(attributes AttributeMap) (ConfigT, error)
}

type genericRegistration struct {
	convert   func(attributes AttributeMap) (ConfigValidator, error)
	construct func(ctx context.Context, conf ConfigValidator, logger logging.Logger) (Transport, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]genericRegistration{}
)

// Register makes a transport type available under name. It panics on duplicate names or a nil
// constructor, as registration happens in init.
func Register[ConfigT ConfigValidator](name string, reg Registration[ConfigT]) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, old := registry[name]; old {
		panic(errors.Errorf("trying to register two transports with the same type %q", name))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for transport %q", name))
	}
	if reg.AttributeMapConverter == nil {
		reg.AttributeMapConverter = TransformAttributeMap[ConfigT]
	}

	registry[name] = genericRegistration{
		convert: func(attributes AttributeMap) (ConfigValidator, error) {
			return reg.AttributeMapConverter(attributes)
		},
		construct: func(ctx context.Context, conf ConfigValidator, logger logging.Logger) (Transport, error) {
			typed, ok := conf.(ConfigT)
			if !ok {
				var zero ConfigT
				return nil, errors.Errorf("expected config %T but got %T", zero, conf)
			}
			return reg.Constructor(ctx, typed, logger)
		},
	}
}

// RegisteredTypes lists the registered transport types in sorted order.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}

// ErrUnknownType is returned for transport types nobody registered.
var ErrUnknownType = errors.New("unknown transport type")

// ValidateAttributes converts and validates attributes for the named type without building it.
func ValidateAttributes(name string, attributes AttributeMap, path string) error {
	_, _, err := convert(name, attributes, path)
	return err
}

func convert(name string, attributes AttributeMap, path string) (genericRegistration, ConfigValidator, error) {
	registryMu.RLock()
	reg, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return genericRegistration{}, nil, errors.Wrapf(ErrUnknownType, "%s: %q (have %v)", path, name, RegisteredTypes())
	}

	conf, err := reg.convert(attributes)
	if err != nil {
		return genericRegistration{}, nil, errors.Wrapf(err, "%s: failed to decode attributes", path)
	}
	if err := conf.Validate(path); err != nil {
		return genericRegistration{}, nil, err
	}
	return reg, conf, nil
}

// New builds the named transport from raw attributes.
func New(ctx context.Context, name string, attributes AttributeMap, logger logging.Logger) (Transport, error) {
	reg, conf, err := convert(name, attributes, "transport.attributes")
	if err != nil {
		return nil, err
	}
	return reg.construct(ctx, conf, logger)
}

// TransformAttributeMap decodes attributes into T using the `json` struct tags. Durations may be
// given as strings like "50ms" and UUIDs as hex strings. Unknown keys are an error.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T
	var result interface{} = &out

	if toT := reflect.TypeOf(out); toT != nil && toT.Kind() == reflect.Ptr {
		allocated, ok := reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		out = allocated
		result = out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      result,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, err
	}
	return out, nil
}
