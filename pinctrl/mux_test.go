package pinctrl

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"periph.io/x/conn/v3/pin"
)

func pmode(v uint32) uint32 {
	return (v & padCfg0PModeMask) >> padCfg0PModeShift
}

func TestActivateGroup(t *testing.T) {
	f := newFixture(t, nil)

	test.That(t, f.ctrl.ActivateGroup(ctxBG, "UART", "uart_grp"), test.ShouldBeNil)
	for _, p := range []uint{10, 11} {
		cfg0 := f.peek(p, RegPadCfg0)
		test.That(t, pmode(cfg0), test.ShouldEqual, uint32(1))
		test.That(t, cfg0&^padCfg0PModeMask, test.ShouldEqual, uint32(testPadCfg0))
	}

	test.That(t, f.ctrl.ActivateGroup(ctxBG, "I2C", "i2c_grp"), test.ShouldBeNil)
	test.That(t, pmode(f.peek(72, RegPadCfg0)), test.ShouldEqual, uint32(2))
	test.That(t, pmode(f.peek(73, RegPadCfg0)), test.ShouldEqual, uint32(3))

	err := f.ctrl.ActivateGroup(ctxBG, "UART", "i2c_grp")
	test.That(t, errors.Is(err, ErrNotSupported), test.ShouldBeTrue)
	err = f.ctrl.ActivateGroup(ctxBG, "PWM", "uart_grp")
	test.That(t, errors.Is(err, ErrNotSupported), test.ShouldBeTrue)
}

func TestActivateGroupChecksEveryPinFirst(t *testing.T) {
	f := newFixture(t, nil)
	f.setBit(21, RegPadCfgLock)
	before := f.peek(20, RegPadCfg0)

	err := f.ctrl.ActivateGroup(ctxBG, "SPI", "spi_grp")
	test.That(t, errors.Is(err, ErrLocked), test.ShouldBeTrue)
	test.That(t, f.peek(20, RegPadCfg0), test.ShouldEqual, before)

	f.clearBit(21, RegPadCfgLock)
	f.clearBit(20, RegHostOwner)
	err = f.ctrl.ActivateGroup(ctxBG, "SPI", "spi_grp")
	test.That(t, errors.Is(err, ErrFirmwareOwned), test.ShouldBeTrue)
	test.That(t, pmode(f.peek(21, RegPadCfg0)), test.ShouldEqual, uint32(0))
}

func TestTopologyQueries(t *testing.T) {
	f := newFixture(t, nil)
	test.That(t, f.ctrl.FunctionNames(), test.ShouldResemble, []pin.Func{"UART", "SPI", "I2C"})

	groups, err := f.ctrl.FunctionGroups("I2C")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, groups, test.ShouldResemble, []string{"i2c_grp"})
	_, err = f.ctrl.FunctionGroups("PWM")
	test.That(t, errors.Is(err, ErrNotSupported), test.ShouldBeTrue)

	pins, err := f.ctrl.GroupPins("spi_grp")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pins, test.ShouldResemble, []uint{20, 21})
	_, err = f.ctrl.GroupPins("nope")
	test.That(t, errors.Is(err, ErrNotSupported), test.ShouldBeTrue)
}
