// Package sunrisepoint registers the Sunrisepoint-LP PCH GPIO topology. Import it for its side
// effect:
//
//	import _ "go.viam.com/pinctrl/topology/sunrisepoint"
package sunrisepoint

import (
	"fmt"

	"periph.io/x/conn/v3/pin"

	"go.viam.com/pinctrl/registry"
	"go.viam.com/pinctrl/topology"
)

// Name is the name the topology is registered under.
const Name = "sunrisepoint-lp"

const (
	padOwnOffset     = 0x020
	padCfgLockOffset = 0x0a0
	hostOwnOffset    = 0x0d0
	ieOffset         = 0x120
	gppSize          = 24
	gppNumPadOwnRegs = 4
)

// Mux functions.
const (
	UART0 pin.Func = "UART0"
	UART1 pin.Func = "UART1"
	UART2 pin.Func = "UART2"
	I2C0  pin.Func = "I2C0"
	I2C1  pin.Func = "I2C1"
	SPI0  pin.Func = "SPI0"
	SDIO  pin.Func = "SDIO"
)

// banks lists the GPP banks in pin order with their sizes.
var banks = []struct {
	prefix string
	size   uint
}{
	{"GPP_A", 24}, {"GPP_B", 24},
	{"GPP_C", 24}, {"GPP_D", 24}, {"GPP_E", 24},
	{"GPP_F", 24}, {"GPP_G", 8},
}

func community(bar, base, npins uint) topology.Community {
	return topology.Community{
		Bar:              bar,
		PadOwnOffset:     padOwnOffset,
		PadCfgLockOffset: padCfgLockOffset,
		HostOwnOffset:    hostOwnOffset,
		IEOffset:         ieOffset,
		PinBase:          base,
		NPins:            npins,
		GPPSize:          gppSize,
		GPPNumPadOwnRegs: gppNumPadOwnRegs,
	}
}

func pins() []topology.Pin {
	var out []topology.Pin
	var n uint
	for _, b := range banks {
		for i := uint(0); i < b.size; i++ {
			out = append(out, topology.Pin{Number: n, Name: fmt.Sprintf("%s%d", b.prefix, i)})
			n++
		}
	}
	return out
}

func span(first, last uint) []uint {
	out := make([]uint, 0, last-first+1)
	for p := first; p <= last; p++ {
		out = append(out, p)
	}
	return out
}

// New returns a fresh copy of the Sunrisepoint-LP topology.
func New() *topology.SoC {
	return &topology.SoC{
		Name: Name,
		Pins: pins(),
		Groups: []topology.Group{
			{Name: "spi0_grp", Pins: span(39, 42), Mode: topology.UniformMode(1)},
			{Name: "uart0_grp", Pins: span(56, 59), Mode: topology.UniformMode(1)},
			{Name: "uart1_grp", Pins: span(60, 63), Mode: topology.UniformMode(1)},
			{Name: "i2c0_grp", Pins: span(64, 65), Mode: topology.UniformMode(1)},
			{Name: "i2c1_grp", Pins: span(66, 67), Mode: topology.UniformMode(1)},
			{Name: "uart2_grp", Pins: span(68, 71), Mode: topology.UniformMode(1)},
			// GPP_G7 doubles as the card-detect input and sits in mode 2.
			{Name: "sdio_grp", Pins: span(144, 151), Mode: topology.PerPinModes{1, 1, 1, 1, 1, 1, 1, 2}},
		},
		Functions: []topology.Function{
			{Name: SPI0, Groups: []string{"spi0_grp"}},
			{Name: UART0, Groups: []string{"uart0_grp"}},
			{Name: UART1, Groups: []string{"uart1_grp"}},
			{Name: UART2, Groups: []string{"uart2_grp"}},
			{Name: I2C0, Groups: []string{"i2c0_grp"}},
			{Name: I2C1, Groups: []string{"i2c1_grp"}},
			{Name: SDIO, Groups: []string{"sdio_grp"}},
		},
		Communities: []topology.Community{
			community(0, 0, 48),
			community(1, 48, 72),
			community(2, 120, 32),
		},
	}
}

func init() {
	registry.RegisterSoC(New())
}
