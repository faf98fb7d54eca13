package main

import (
	"bytes"
	"testing"

	"go.viam.com/test"

	"go.viam.com/pinctrl/topology/sunrisepoint"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"pinctrl-sim"}, args...))
	return out.String(), err
}

func TestSoCsCommand(t *testing.T) {
	out, err := runApp(t, "socs")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, sunrisepoint.Name)
}

func TestTopologyCommand(t *testing.T) {
	out, err := runApp(t, "topology")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "152 pins")
	test.That(t, out, test.ShouldContainSubstring, "uart0_grp")

	_, err = runApp(t, "--soc", "nope", "topology")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown soc "nope"`)
}

func TestResolveCommand(t *testing.T) {
	out, err := runApp(t, "resolve", "50")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "gpio 50 is pin 50")
	test.That(t, out, test.ShouldContainSubstring, "HOSTSW_OWN")
	test.That(t, out, test.ShouldContainSubstring, "trigger: none")

	_, err = runApp(t, "resolve")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "resolve", "not-a-number")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parsing gpio number")

	_, err = runApp(t, "resolve", "5000")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSelftestCommand(t *testing.T) {
	for _, debounce := range []string{"true", "false"} {
		t.Run("debounce="+debounce, func(t *testing.T) {
			out, err := runApp(t, "--debounce="+debounce, "selftest")
			test.That(t, err, test.ShouldBeNil)
			test.That(t, out, test.ShouldContainSubstring, "all 5 checks passed")
			test.That(t, out, test.ShouldNotContainSubstring, "FAIL")
		})
	}
	for _, edge := range []string{"falling", "both"} {
		t.Run("edge="+edge, func(t *testing.T) {
			out, err := runApp(t, "selftest", "--edge", edge)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, out, test.ShouldContainSubstring, "all 5 checks passed")
		})
	}

	_, err := runApp(t, "selftest", "--edge", "sideways")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown edge "sideways"`)
}
