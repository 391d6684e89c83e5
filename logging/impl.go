package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger handed to every benben component.
type Logger interface {
	ZapCompatibleLogger

	Name() string
	SetLevel(level Level)
	GetLevel() Level
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	AsZap() *zap.SugaredLogger

	CDebug(ctx context.Context, args ...interface{})
	CDebugf(ctx context.Context, template string, args ...interface{})
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})
	CInfow(ctx context.Context, msg string, keysAndValues ...interface{})
	CWarnw(ctx context.Context, msg string, keysAndValues ...interface{})
	CErrorw(ctx context.Context, msg string, keysAndValues ...interface{})
}

// ZapCompatibleLogger is the subset of `*zap.SugaredLogger` that libraries expecting zap can use.
type ZapCompatibleLogger interface {
	Desugar() *zap.Logger
	Level() zapcore.Level
	Named(name string) *zap.SugaredLogger
	Sync() error
	With(args ...interface{}) *zap.SugaredLogger
	WithOptions(opts ...zap.Option) *zap.SugaredLogger

	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func (imp *impl) Name() string {
	return imp.name
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Level() zapcore.Level {
	return imp.GetLevel().AsZap()
}

// Sublogger shares appenders with its parent but owns its level.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}

	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) Desugar() *zap.Logger {
	return imp.AsZap().Desugar()
}

func (imp *impl) Named(name string) *zap.SugaredLogger {
	return imp.AsZap().Named(name)
}

func (imp *impl) With(args ...interface{}) *zap.SugaredLogger {
	return imp.AsZap().With(args...)
}

func (imp *impl) WithOptions(opts ...zap.Option) *zap.SugaredLogger {
	return imp.AsZap().WithOptions(opts...)
}

// AsZap builds a zap logger writing to stdout. Appenders that are themselves zap cores, such as
// the observer used by tests, are teed in.
func (imp *impl) AsZap() *zap.SugaredLogger {
	config := NewZapLoggerConfig()
	config.Level = GlobalLogLevel
	ret := zap.Must(config.Build()).Sugar().Named(imp.name)
	for _, appender := range imp.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	return ret
}

func (imp *impl) enabled(ctx context.Context, logLevel Level) bool {
	if GlobalLogLevel.Level() == zapcore.DebugLevel {
		return true
	}
	if logLevel == DEBUG && IsDebugMode(ctx) {
		return true
	}
	return logLevel >= imp.level.Get()
}

// The three emitters below must stay exactly two frames above `getCaller`.

func (imp *impl) emit(ctx context.Context, logLevel Level, args []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, fmt.Sprint(args...), nil))
	}
}

func (imp *impl) emitf(ctx context.Context, logLevel Level, template string, args []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, fmt.Sprintf(template, args...), nil))
	}
}

func (imp *impl) emitw(ctx context.Context, logLevel Level, msg string, keysAndValues []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, msg, toFields(keysAndValues)))
	}
}

type logEntry struct {
	zapcore.Entry
	fields []zapcore.Field
}

func (imp *impl) newEntry(logLevel Level, msg string, fields []zapcore.Field) *logEntry {
	entry := &logEntry{fields: fields}
	entry.Time = time.Now()
	entry.LoggerName = imp.name
	entry.Level = logLevel.AsZap()
	entry.Message = msg
	entry.Caller = getCaller()
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	return entry
}

func (imp *impl) write(entry *logEntry) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// toFields pairs up odd keys with the value that follows them. Values are encoded with `zap.Any`.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		switch k := keysAndValues[idx].(type) {
		case string:
			key = k
		case fmt.Stringer:
			key = k.String()
		default:
			key = fmt.Sprintf("%v", k)
		}

		if idx+1 == len(keysAndValues) {
			// Surface the mistake instead of dropping the key.
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[idx+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) { imp.emit(context.Background(), DEBUG, args) }

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emitf(context.Background(), DEBUG, template, args)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), DEBUG, msg, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) { imp.emit(context.Background(), INFO, args) }

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emitf(context.Background(), INFO, template, args)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), INFO, msg, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) { imp.emit(context.Background(), WARN, args) }

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emitf(context.Background(), WARN, template, args)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), WARN, msg, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) { imp.emit(context.Background(), ERROR, args) }

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emitf(context.Background(), ERROR, template, args)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), ERROR, msg, keysAndValues)
}

func (imp *impl) CDebug(ctx context.Context, args ...interface{}) {
	imp.emit(ctx, DEBUG, args)
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.emitf(ctx, DEBUG, template, args)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.emitw(ctx, DEBUG, msg, keysAndValues)
}

func (imp *impl) CInfow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.emitw(ctx, INFO, msg, keysAndValues)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.emitw(ctx, WARN, msg, keysAndValues)
}

func (imp *impl) CErrorw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.emitw(ctx, ERROR, msg, keysAndValues)
}

// getCaller returns the location of the user code that called a logging method. The frames
// skipped are getCaller, newEntry, emit* and the public logging method.
func getCaller() zapcore.EntryCaller {
	const skipToLogCaller = 4
	var entryCaller zapcore.EntryCaller
	var ok bool
	entryCaller.PC, entryCaller.File, entryCaller.Line, ok = runtime.Caller(skipToLogCaller)
	if !ok {
		return entryCaller
	}
	entryCaller.Defined = true
	if fn := runtime.FuncForPC(entryCaller.PC); fn != nil {
		entryCaller.Function = fn.Name()
	}
	return entryCaller
}
