package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type motorReport struct {
	Motors [4]float64
	hidden string
}

func newBufferLogger(name string, level Level) (*impl, *bytes.Buffer) {
	notStdout := &bytes.Buffer{}
	return &impl{name, NewAtomicLevelAt(level), true, []Appender{NewWriterAppender(notStdout)}}, notStdout
}

// assertLogMatches fuzzy matches a log line. The time is only checked for its length and the line
// number only for being a number.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))

	for idx := 1; idx < len(expectedParts); idx++ {
		actualFile, actualLine, isCaller := strings.Cut(actualParts[idx], ".go:")
		if isCaller {
			expectedFile, _, found := strings.Cut(expectedParts[idx], ".go:")
			test.That(t, found, test.ShouldBeTrue)
			test.That(t, actualFile, test.ShouldEqual, expectedFile)
			_, err := strconv.Atoi(actualLine)
			test.That(t, err, test.ShouldBeNil)
			continue
		}

		if strings.HasPrefix(expectedParts[idx], "{") {
			expectedMap := map[string]any{}
			test.That(t, json.Unmarshal([]byte(expectedParts[idx]), &expectedMap), test.ShouldBeNil)
			actualMap := map[string]any{}
			test.That(t, json.Unmarshal([]byte(actualParts[idx]), &actualMap), test.ShouldBeNil)
			test.That(t, actualMap, test.ShouldResemble, expectedMap)
			continue
		}
		test.That(t, actualParts[idx], test.ShouldEqual, expectedParts[idx])
	}
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, notStdout := newBufferLogger("", DEBUG)

	logger.Info("plain info")
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	INFO	logging/impl_test.go:1	plain info`)

	logger.Infof("sent %d frames", 3)
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	INFO	logging/impl_test.go:1	sent 3 frames`)

	logger.Warnw("write failed", "session", "abc", "attempt", 2)
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	WARN	logging/impl_test.go:1	write failed	{"session":"abc","attempt":2}`)

	logger.Debugw("report", "report", motorReport{Motors: [4]float64{1, 0, -1, 0.5}, hidden: "x"})
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	DEBUG	logging/impl_test.go:1	report	{"report":{"Motors":[1,0,-1,0.5]}}`)

	logger.Errorw("unpaired", "lonely")
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	ERROR	logging/impl_test.go:1	unpaired	{"lonely":"unpaired log key"}`)
}

func TestSubloggerName(t *testing.T) {
	logger, notStdout := newBufferLogger("benben", INFO)
	sub := logger.Sublogger("controller")
	test.That(t, sub.Name(), test.ShouldEqual, "benben.controller")

	sub.Infow("connected", "state", "connected")
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	INFO	benben.controller	logging/impl_test.go:1	connected	{"state":"connected"}`)

	// Sublogger levels are independent of the parent.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestLevelFiltering(t *testing.T) {
	logger, notStdout := newBufferLogger("", WARN)

	logger.Info("dropped")
	logger.Debug("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.CDebugw(context.Background(), "dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.CDebugw(EnableDebugMode(context.Background()), "debug mode", "k", 1)
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	DEBUG	logging/impl_test.go:1	debug mode	{"k":1}`)

	// Debug mode only lifts debug lines. Info is still below the configured level.
	logger.CInfow(EnableDebugMode(context.Background()), "dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.SetLevel(INFO)
	logger.CInfow(context.Background(), "kept")
	assertLogMatches(t, notStdout,
		`2026-10-15T09:12:09.459Z	INFO	logging/impl_test.go:1	kept`)
}

func TestLevelStrings(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"error"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	out, err := json.Marshal(WARN)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"warn"`)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Sublogger("drive").Warnw("source read failed", "source", "gamepad")

	test.That(t, logs.FilterMessage("source read failed").Len(), test.ShouldEqual, 1)
	entry := logs.FilterMessage("source read failed").All()[0]
	test.That(t, entry.LoggerName, test.ShouldEqual, "drive")
	test.That(t, entry.ContextMap()["source"], test.ShouldEqual, "gamepad")
}
