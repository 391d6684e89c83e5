package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/benben/config"
	"go.viam.com/benben/controller"
	"go.viam.com/benben/logging"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(path)
}

// newLogger builds the root logger from the config and the global flags. The closer flushes and
// closes any log file.
func newLogger(c *cli.Context, conf *config.Config, out io.Writer) (logging.Logger, io.Closer) {
	logger := logging.NewBlankLogger("benben")
	logger.AddAppender(logging.NewWriterAppender(out))

	level := conf.Log.Level
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	logger.SetLevel(level)
	logging.GlobalLogLevel.SetLevel(level.AsZap())

	fileConf := conf.Log.File
	if path := c.String(generalFlagLogFile); path != "" {
		fileConf = &logging.FileAppenderConfig{Filename: path}
	}
	if fileConf == nil {
		return logger, nopCloser{}
	}
	appender, closer := logging.NewFileAppender(*fileConf)
	logger.AddAppender(appender)
	return logger, closerFunc(func() error {
		return multierr.Combine(appender.Sync(), closer.Close())
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// rawTerminalWriter turns each "\n" into "\r\n" for a terminal in raw mode.
type rawTerminalWriter struct {
	io.Writer
}

func (w rawTerminalWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.Writer, strings.ReplaceAll(string(p), "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

var stateColors = map[controller.State]*color.Color{
	controller.Disconnected: color.New(color.FgRed),
	controller.Connecting:   color.New(color.FgYellow),
	controller.Connected:    color.New(color.FgGreen, color.Bold),
}

// stateLine renders the connection state for the terminal.
func stateLine(state controller.State) string {
	c, ok := stateColors[state]
	if !ok {
		return "vehicle: " + state.String()
	}
	return "vehicle: " + c.Sprint(state.String())
}
