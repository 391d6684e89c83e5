package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/benben/controller"
	// registered so configs naming it validate.
	_ "go.viam.com/benben/transport/fake"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"benben"}, args...))
	return out.String(), err
}

func TestFrameAction(t *testing.T) {
	out, err := runApp(t, "frame", "0", "0", "0", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual,
		"CC 00 00 02 80 80 80 80 80 80 80 80 80 80 80 80 02 33")

	_, err = runApp(t, "frame", "0", "0", "0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 4 arguments")

	_, err = runApp(t, "frame", "0", "0", "0", "fast")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid d")
}

func TestMixAction(t *testing.T) {
	out, err := runApp(t, "mix", "0", "-1", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "1.000 1.000 1.000 1.000")

	out, err = runApp(t, "mix", "0.1", "0.1", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "0.000 0.000 0.000 0.000")
}

func TestMixActionUsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benben.json")
	conf := `{"mixer": {"max_speed": 0.5}, "transport": {"type": "fake"}}`
	test.That(t, os.WriteFile(path, []byte(conf), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "--config", path, "mix", "0", "-1", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "0.500 0.500 0.500 0.500")
}

func TestDecodeAction(t *testing.T) {
	out, err := runApp(t, "decode", "CC 00 00 02 80 80 80 80 80 80 80 80 80 80 80 80 02 33")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "0.000 0.000 0.000 0.000")

	frame, err := runApp(t, "frame", "1", "-1", "1", "-1")
	test.That(t, err, test.ShouldBeNil)
	out, err = runApp(t, append([]string{"decode"}, strings.Fields(frame)...)...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "1.000 -1.000 1.000 -1.000")

	_, err = runApp(t, "decode", "CC0000")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "decode", "zz")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid hex")
}

func TestStateLine(t *testing.T) {
	test.That(t, stateLine(controller.Connected), test.ShouldContainSubstring, "connected")
	test.That(t, stateLine(controller.State(7)), test.ShouldEqual, "vehicle: State(7)")
}

func TestRawTerminalWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := rawTerminalWriter{&buf}.Write([]byte("a\nb\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 4)
	test.That(t, buf.String(), test.ShouldEqual, "a\r\nb\r\n")
}
