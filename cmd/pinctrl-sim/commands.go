package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"
	"golang.org/x/exp/slices"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/pinctrl/logging"
	"go.viam.com/pinctrl/pinctrl"
	"go.viam.com/pinctrl/registry"
	"go.viam.com/pinctrl/topology"
)

func lookupSoC(c *cli.Context) (*topology.SoC, error) {
	name := c.String(flagSoC)
	soc, ok := registry.LookupSoC(name)
	if !ok {
		return nil, errors.Errorf("unknown soc %q, known: %s", name, strings.Join(registry.RegisteredSoCs(), ", "))
	}
	return soc, nil
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("pinctrl-sim")
	}
	return logging.NewBlankLogger("pinctrl-sim")
}

// newController attaches a controller to freshly simulated registers.
func newController(c *cli.Context) (*pinctrl.Controller, *pinctrl.SimulatedHardware, error) {
	soc, err := lookupSoC(c)
	if err != nil {
		return nil, nil, err
	}
	hw := pinctrl.NewSimulatedHardware(soc, c.Bool(flagDebounce))
	ctrl, err := pinctrl.NewFromConfig(c.Context, configFromFlags(c), hw.Resources, hw.Mapper, newLogger(c))
	if err != nil {
		return nil, nil, err
	}
	return ctrl, hw, nil
}

func listSoCsAction(c *cli.Context) error {
	for _, name := range registry.RegisteredSoCs() {
		printf(c.App.Writer, "%s", name)
	}
	return nil
}

func topologyAction(c *cli.Context) error {
	soc, err := lookupSoC(c)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", soc.String())

	t := table.NewWriter()
	t.SetTitle("Mux functions")
	t.AppendHeader(table.Row{"Function", "Group", "Pins", "Modes"})
	for _, f := range soc.Functions {
		for _, name := range f.Groups {
			g, _ := soc.Group(name)
			modes := make([]string, 0, len(g.Pins))
			for i := range g.Pins {
				m, err := g.Mode.ForPin(i)
				if err != nil {
					return err
				}
				modes = append(modes, strconv.FormatUint(uint64(m), 10))
			}
			t.AppendRow(table.Row{f.Name, name, fmt.Sprint(g.Pins), strings.Join(modes, ",")})
		}
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func resolveAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("resolve takes exactly one gpio number")
	}
	gpio, err := strconv.ParseUint(c.Args().First(), 0, 32)
	if err != nil {
		return errors.Wrap(err, "parsing gpio number")
	}
	ctrl, _, err := newController(c)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(ctrl.Close)

	pin, err := ctrl.GPIOToPin(uint(gpio))
	if err != nil {
		return err
	}
	loc, err := ctrl.Locate(pin)
	if err != nil {
		return err
	}
	st, err := ctrl.PadState(c.Context, uint(gpio))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "gpio %d is pin %d (%s): community %d, %s bit %d, %s",
		gpio, pin, ctrl.SoC().Pins[pinIndex(ctrl.SoC(), pin)].Name, loc.Community, loc.PadGroup, loc.GroupOffset, st.Lock)
	if typ, err := ctrl.GetInterruptType(c.Context, uint(gpio)); err == nil {
		if edge, ok := typ.Edge(); ok {
			printf(c.App.Writer, "trigger: %s (%s)", typ, edge)
		} else {
			printf(c.App.Writer, "trigger: %s", typ)
		}
	}
	if !st.Usable() {
		warningf(c.App.Writer, "pad is not usable by the host (owned by host: %t, acpi mode: %t)", st.OwnedByHost, st.ACPIMode)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Register", "Address"})
	for _, kind := range pinctrl.RegisterKinds() {
		addr, err := ctrl.RegisterAddress(pin, kind)
		if err != nil {
			t.AppendRow(table.Row{kind, "-"})
			continue
		}
		t.AppendRow(table.Row{kind, fmt.Sprintf("%#x", addr)})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func pinIndex(soc *topology.SoC, pin uint) int {
	idx, _ := soc.PinIndex(pin)
	return idx
}

var edges = map[string]gpio.Edge{
	"rising":  gpio.RisingEdge,
	"falling": gpio.FallingEdge,
	"both":    gpio.BothEdges,
}

type check struct {
	name string
	run  func(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error
}

func selftestAction(c *cli.Context) error {
	edge, ok := edges[c.String(flagEdge)]
	if !ok {
		return errors.Errorf("unknown edge %q, want rising, falling or both", c.String(flagEdge))
	}
	checks := []check{
		{"every pin locates inside its pad group", checkLocate},
		{"interrupts reach their actions", dispatchCheck(pinctrl.InterruptTypeFromEdge(edge))},
		{"unbound status bits count as spurious", checkSpurious},
		{"second registration is rejected", checkDuplicate},
		{"suspend then resume restores registers", checkRoundTrip},
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Check", "Result", "Detail"})
	var failed int
	for _, chk := range checks {
		ctrl, hw, err := newController(c)
		if err != nil {
			return err
		}
		err = chk.run(c.Context, ctrl, hw)
		goutils.UncheckedError(ctrl.Close())
		detail := ""
		if err != nil {
			failed++
			detail = err.Error()
		}
		t.AppendRow(table.Row{chk.name, verdict(err == nil), detail})
	}
	printf(c.App.Writer, "%s", t.Render())
	if failed > 0 {
		return errors.Errorf("%d of %d checks failed", failed, len(checks))
	}
	infof(c.App.Writer, "all %d checks passed", len(checks))
	return nil
}

func checkLocate(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error {
	for _, p := range ctrl.SoC().Pins {
		loc, err := ctrl.Locate(p.Number)
		if err != nil {
			return err
		}
		if !loc.PadGroup.Contains(p.Number) {
			return errors.Errorf("pin %d located in %s", p.Number, loc.PadGroup)
		}
	}
	return nil
}

// firstGPIOs returns the first GPIO of every community.
func firstGPIOs(ctrl *pinctrl.Controller) []uint {
	var gpios []uint
	for _, comm := range ctrl.SoC().Communities {
		if gpio, err := ctrl.PinToGPIO(comm.PinBase); err == nil {
			gpios = append(gpios, gpio)
		}
	}
	return gpios
}

// dispatchCheck binds the first GPIO of every community with trigger typ and raises them all.
func dispatchCheck(typ pinctrl.InterruptType) func(context.Context, *pinctrl.Controller, *pinctrl.SimulatedHardware) error {
	return func(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error {
		return checkDispatch(ctx, ctrl, hw, typ)
	}
}

func checkDispatch(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware, typ pinctrl.InterruptType) error {
	var fired []uint
	action := func(ctx context.Context, owner, refcon interface{}, gpio uint) {
		fired = append(fired, gpio)
	}
	gpios := firstGPIOs(ctrl)
	for _, gpio := range gpios {
		if err := ctrl.RegisterInterrupt(ctx, gpio, "selftest", action, nil); err != nil {
			return err
		}
		if err := ctrl.SetInterruptTypeForPin(ctx, gpio, typ); err != nil {
			return err
		}
		if err := ctrl.EnableInterrupt(ctx, gpio); err != nil {
			return err
		}
		pin, err := ctrl.GPIOToPin(gpio)
		if err != nil {
			return err
		}
		if err := hw.Raise(pin); err != nil {
			return err
		}
	}
	stats, err := ctrl.HandleInterrupt(ctx)
	if err != nil {
		return err
	}
	if stats.Handled != len(gpios) || !slices.Equal(fired, gpios) {
		return errors.Errorf("expected %v to fire, got %v", gpios, fired)
	}
	return nil
}

func checkSpurious(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error {
	if err := hw.Raise(ctrl.SoC().Communities[0].PinBase); err != nil {
		return err
	}
	stats, err := ctrl.HandleInterrupt(ctx)
	if err != nil {
		return err
	}
	if stats.Spurious != 1 || stats.Handled != 0 {
		return errors.Errorf("unexpected dispatch result %+v", stats)
	}
	return nil
}

func checkDuplicate(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error {
	gpios := firstGPIOs(ctrl)
	if len(gpios) == 0 {
		return errors.New("no gpio to register")
	}
	noop := func(ctx context.Context, owner, refcon interface{}, gpio uint) {}
	if err := ctrl.RegisterInterrupt(ctx, gpios[0], nil, noop, nil); err != nil {
		return err
	}
	if err := ctrl.RegisterInterrupt(ctx, gpios[0], nil, noop, nil); !errors.Is(err, pinctrl.ErrAlreadyRegistered) {
		return errors.Errorf("expected %v, got %v", pinctrl.ErrAlreadyRegistered, err)
	}
	return nil
}

func checkRoundTrip(ctx context.Context, ctrl *pinctrl.Controller, hw *pinctrl.SimulatedHardware) error {
	noop := func(ctx context.Context, owner, refcon interface{}, gpio uint) {}
	for _, gpio := range firstGPIOs(ctrl) {
		if err := ctrl.RegisterInterrupt(ctx, gpio, nil, noop, nil); err != nil {
			return err
		}
		if err := ctrl.EnableInterrupt(ctx, gpio); err != nil {
			return err
		}
	}
	snapshot := func() [][]uint32 {
		var out [][]uint32
		for _, res := range hw.Resources {
			r, _ := hw.Mapper.Region(res.Bar)
			out = append(out, r.Snapshot())
		}
		return out
	}
	before := snapshot()
	if err := ctrl.SetPowerState(ctx, pinctrl.PowerStateOff, "selftest"); err != nil {
		return err
	}
	if err := ctrl.SetPowerState(ctx, pinctrl.PowerStateOn, "selftest"); err != nil {
		return err
	}
	after := snapshot()
	for i := range before {
		if diff := cmp.Diff(before[i], after[i]); diff != "" {
			return errors.Errorf("registers of %s changed across suspend (-before +after):\n%s", hw.Resources[i], diff)
		}
	}
	return nil
}
