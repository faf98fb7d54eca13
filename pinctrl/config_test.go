package pinctrl

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/pinctrl/logging"
	"go.viam.com/pinctrl/mmio"
	"go.viam.com/pinctrl/topology/sunrisepoint"
	"go.viam.com/pinctrl/utils"
)

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(map[string]interface{}{"soc": "sunrisepoint-lp", "settle_delay": "250us"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, &Config{SoC: "sunrisepoint-lp", SettleDelay: 250 * time.Microsecond})
	test.That(t, cfg.Validate("pinctrl"), test.ShouldBeNil)

	cfg, err = DecodeConfig(map[string]interface{}{"soc": "x", "settle_delay": float64(1000)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SettleDelay, test.ShouldEqual, time.Microsecond)

	_, err = DecodeConfig(map[string]interface{}{"soc": "x", "settle": "1ms"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "settle")
}

func TestConfigValidate(t *testing.T) {
	err := (&Config{}).Validate("pinctrl")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, utils.GetFieldFromFieldRequiredError(err), test.ShouldEqual, "soc")

	err = (&Config{SoC: "x", SettleDelay: time.Second}).Validate("pinctrl")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "settle_delay")

	err = (&Config{SoC: "x", SettleDelay: -time.Microsecond}).Validate("pinctrl")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, (&Config{SoC: "x", SettleDelay: MaxSettleDelay}).Validate("pinctrl"), test.ShouldBeNil)
}

func TestNewFromConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	mapper := mmio.NewSimMapper()
	var resources []mmio.Resource
	for bar := uint(0); bar < 3; bar++ {
		res := mmio.Resource{Bar: bar, Base: 0xfd000000 + uint64(bar)<<20, Size: testRegionSize}
		mapper.Prepare(res).Poke(regPadBar, testPadBar)
		resources = append(resources, res)
	}

	ctrl, err := NewFromConfig(ctxBG, &Config{SoC: sunrisepoint.Name}, resources, mapper, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, ctrl.Close(), test.ShouldBeNil)
	}()
	test.That(t, ctrl.SoC().Name, test.ShouldEqual, sunrisepoint.Name)

	loc, err := ctrl.Locate(150)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loc.Community, test.ShouldEqual, 2)
	test.That(t, loc.PadGroup.RegNum, test.ShouldEqual, uint(1))
	addr, err := ctrl.RegisterAddress(150, RegPadOwner)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, addr, test.ShouldEqual, uint64(0xfd200000+0x020+4*4))

	_, err = NewFromConfig(ctxBG, &Config{SoC: "no-such-soc"}, resources, mapper, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no-such-soc")

	_, err = NewFromConfig(ctxBG, &Config{}, resources, mapper, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
