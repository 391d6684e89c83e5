package logging

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern. A `*` matches
// any run of characters, including dots.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

// e.g. "benben.controller" or "benben.*".
var loggerPatternRegexp = regexp.MustCompile(`^([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*)(\.([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*))*$`)

// Validate returns an error if the pattern or level cannot be used.
func (lpc LoggerPatternConfig) Validate(path string) error {
	if !loggerPatternRegexp.MatchString(lpc.Pattern) {
		return errors.Errorf("%s: invalid logger pattern %q", path, lpc.Pattern)
	}
	if _, err := LevelFromString(lpc.Level); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

func patternToRegexp(pattern string) (*regexp.Regexp, error) {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return regexp.Compile(matcher.String())
}

// Registry remembers named loggers so their levels can be changed by config after creation.
type Registry struct {
	mu       sync.Mutex
	loggers  map[string]Logger
	defaults map[string]Level
	patterns []LoggerPatternConfig
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: map[string]Logger{}, defaults: map[string]Level{}}
}

// Sublogger creates a sublogger of parent, registers it and applies any matching pattern.
func (reg *Registry) Sublogger(parent Logger, subname string) Logger {
	logger := parent.Sublogger(subname)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.loggers[logger.Name()] = logger
	reg.defaults[logger.Name()] = logger.GetLevel()
	reg.applyLocked(logger.Name(), logger)
	return logger
}

// Update replaces the active patterns. Loggers no longer matched by any pattern return to the
// level they were registered with. Patterns later in the list win.
func (reg *Registry) Update(patterns []LoggerPatternConfig) error {
	for idx, lpc := range patterns {
		if err := lpc.Validate(fmt.Sprintf("log.levels.%d", idx)); err != nil {
			return err
		}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.patterns = append([]LoggerPatternConfig(nil), patterns...)
	for name, logger := range reg.loggers {
		logger.SetLevel(reg.defaults[name])
		reg.applyLocked(name, logger)
	}
	return nil
}

func (reg *Registry) applyLocked(name string, logger Logger) {
	for _, lpc := range reg.patterns {
		matcher, err := patternToRegexp(lpc.Pattern)
		if err != nil || !matcher.MatchString(name) {
			continue
		}
		if level, err := LevelFromString(lpc.Level); err == nil {
			logger.SetLevel(level)
		}
	}
}
