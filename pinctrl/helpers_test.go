package pinctrl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"go.viam.com/pinctrl/logging"
	"go.viam.com/pinctrl/mmio"
	"go.viam.com/pinctrl/topology"
)

const (
	testPadBar     = 0x400
	testRegionSize = 0x1000
	// Default pad: GPIO input, trigger disabled.
	testPadCfg0 = rxEvCfgDisabled<<padCfg0RxEvCfgShift | padCfg0GPIOTxDis
)

// testSoC has three communities: a synthesized one with a short last pad group, one with
// explicit pad groups and a remapped GPIO base, and one without ownership, lock or interrupt
// registers.
func testSoC() *topology.SoC {
	pins := make([]topology.Pin, 0, 96)
	for i := uint(0); i < 96; i++ {
		pins = append(pins, topology.Pin{Number: i, Name: fmt.Sprintf("PAD%d", i)})
	}
	return &topology.SoC{
		Name: "test-soc",
		Pins: pins,
		Groups: []topology.Group{
			{Name: "uart_grp", Pins: []uint{10, 11}, Mode: topology.UniformMode(1)},
			{Name: "spi_grp", Pins: []uint{20, 21}, Mode: topology.UniformMode(4)},
			{Name: "i2c_grp", Pins: []uint{72, 73}, Mode: topology.PerPinModes{2, 3}},
		},
		Functions: []topology.Function{
			{Name: "UART", Groups: []string{"uart_grp"}},
			{Name: "SPI", Groups: []string{"spi_grp"}},
			{Name: "I2C", Groups: []string{"i2c_grp"}},
		},
		Communities: []topology.Community{
			{
				Bar:              0,
				PadOwnOffset:     0x020,
				PadCfgLockOffset: 0x080,
				HostOwnOffset:    0x0c0,
				IEOffset:         0x120,
				PinBase:          0,
				NPins:            70,
				GPPSize:          32,
			},
			{
				Bar:              1,
				PadOwnOffset:     0x020,
				PadCfgLockOffset: 0x080,
				HostOwnOffset:    0x0c0,
				IEOffset:         0x120,
				PinBase:          70,
				NPins:            16,
				PadGroups: []topology.PadGroup{
					{RegNum: 0, Base: 70, Size: 8, GPIOBase: topology.GPIOBaseDefault},
					{RegNum: 1, Base: 78, Size: 8, GPIOBase: 200},
				},
			},
			{Bar: 2, PinBase: 86, NPins: 10, GPPSize: 10},
		},
	}
}

func testResources() []mmio.Resource {
	return []mmio.Resource{
		{Bar: 0, Base: 0xfd000000, Size: testRegionSize},
		{Bar: 1, Base: 0xfd100000, Size: testRegionSize},
		{Bar: 2, Base: 0xfd200000, Size: testRegionSize},
	}
}

// seedHardware prepares power-on register contents: community 0 reports a debounce-capable
// revision, every pad is host owned in GPIO mode, interrupts are masked and unconfigured.
func seedHardware(mapper *mmio.SimMapper, soc *topology.SoC, resources []mmio.Resource) []*mmio.SimRegion {
	regions := make([]*mmio.SimRegion, 0, len(resources))
	for i, res := range resources {
		r := mapper.Prepare(res)
		regions = append(regions, r)
		if i >= len(soc.Communities) {
			continue
		}
		comm := soc.Communities[i]
		stride := uint32(padCfgStride)
		if i == 0 {
			r.Poke(regRevID, revIDDebounce<<revIDShift)
			stride = padCfgStrideDebounce
		}
		r.Poke(regPadBar, testPadBar)
		r.SetWriteOneToClear(regGPIIS, 4)
		for _, g := range comm.ResolvePadGroups() {
			if comm.HostOwnOffset != 0 {
				r.Poke(comm.HostOwnOffset+uint32(g.RegNum)*4, groupMask(g.Size))
			}
		}
		for pad := uint32(0); pad < uint32(comm.NPins); pad++ {
			r.Poke(testPadBar+pad*stride, testPadCfg0)
		}
	}
	return regions
}

type fixture struct {
	t       *testing.T
	soc     *topology.SoC
	mapper  *mmio.SimMapper
	regions []*mmio.SimRegion
	ctrl    *Controller
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, cfg *Config, opts ...Option) *fixture {
	t.Helper()
	logger, logs := logging.NewObservedTestLogger(t)
	soc := testSoC()
	mapper := mmio.NewSimMapper()
	regions := seedHardware(mapper, soc, testResources())
	if cfg == nil {
		cfg = &Config{SoC: soc.Name}
	}
	ctrl, err := New(context.Background(), soc, testResources(), mapper, cfg, logger, opts...)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, ctrl.Close(), test.ShouldBeNil)
	})
	return &fixture{t: t, soc: soc, mapper: mapper, regions: regions, ctrl: ctrl, logs: logs}
}

func (f *fixture) reg(pin uint, kind RegisterKind) (*mmio.SimRegion, uint32) {
	f.t.Helper()
	loc, err := f.ctrl.Locate(pin)
	test.That(f.t, err, test.ShouldBeNil)
	addr, err := f.ctrl.RegisterAddress(pin, kind)
	test.That(f.t, err, test.ShouldBeNil)
	r := f.regions[loc.Community]
	return r, uint32(addr - r.Base())
}

func (f *fixture) peek(pin uint, kind RegisterKind) uint32 {
	f.t.Helper()
	r, off := f.reg(pin, kind)
	return r.Peek(off)
}

func (f *fixture) poke(pin uint, kind RegisterKind, val uint32) {
	f.t.Helper()
	r, off := f.reg(pin, kind)
	r.Poke(off, val)
}

// bit returns pin's bit in its pad group's shared registers.
func (f *fixture) bit(pin uint) uint32 {
	f.t.Helper()
	loc, err := f.ctrl.Locate(pin)
	test.That(f.t, err, test.ShouldBeNil)
	return 1 << loc.GroupOffset
}

func (f *fixture) setBit(pin uint, kind RegisterKind) {
	f.t.Helper()
	f.poke(pin, kind, f.peek(pin, kind)|f.bit(pin))
}

func (f *fixture) clearBit(pin uint, kind RegisterKind) {
	f.t.Helper()
	f.poke(pin, kind, f.peek(pin, kind)&^f.bit(pin))
}

// setPadOwner hands pin's PAD_OWN nibble to owner.
func (f *fixture) setPadOwner(pin uint, owner uint32) {
	f.t.Helper()
	loc, err := f.ctrl.Locate(pin)
	test.That(f.t, err, test.ShouldBeNil)
	shift := (loc.GroupOffset % 8) * padOwnBits
	v := f.peek(pin, RegPadOwner) &^ (padOwnMask << shift)
	f.poke(pin, RegPadOwner, v|owner<<shift)
}

// noop is an interrupt action that ignores its call.
func noop(ctx context.Context, owner, refcon interface{}, gpio uint) {}

type call struct {
	owner, refcon interface{}
	gpio          uint
}

// recorder collects interrupt action calls.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) action(ctx context.Context, owner, refcon interface{}, gpio uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{owner: owner, refcon: refcon, gpio: gpio})
}

func (r *recorder) gpios() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.gpio)
	}
	return out
}

// countingClock records Sleep calls instead of sleeping.
type countingClock struct {
	clock.Clock
	mu     sync.Mutex
	sleeps []time.Duration
}

func newCountingClock() *countingClock {
	return &countingClock{Clock: clock.NewMock()}
}

func (c *countingClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
}

func (c *countingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

var ctxBG = context.Background()

func newSimMapper(soc *topology.SoC) *mmio.SimMapper {
	mapper := mmio.NewSimMapper()
	seedHardware(mapper, soc, testResources())
	return mapper
}
