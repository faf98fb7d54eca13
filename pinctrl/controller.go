// Package pinctrl drives an Intel-style GPIO controller: it resolves pins to registers inside
// their community, gates writes on pad ownership and locks, routes per-pin interrupts and saves
// pad state across suspend. Every mutating operation runs on the controller's work loop.
package pinctrl

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/pinctrl/logging"
	"go.viam.com/pinctrl/mmio"
	"go.viam.com/pinctrl/registry"
	"go.viam.com/pinctrl/topology"
	"go.viam.com/pinctrl/utils"
	"go.viam.com/pinctrl/workloop"
)

// community is the runtime state of one topology.Community.
type community struct {
	idx       int
	desc      topology.Community
	padGroups []topology.PadGroup
	region    mmio.Region
	padBar    uint32
	features  topology.Feature
	mapped    bool
	active    bool

	types    map[uint]InterruptType
	bindings map[uint]*binding
	saved    communityContext
}

type communityContext struct {
	saved   bool
	intmask []uint32
	hostown []uint32
}

type pinContext struct {
	saved   bool
	hasCfg2 bool
	padcfg0 uint32
	padcfg1 uint32
	padcfg2 uint32
}

// An Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the clock used for the dispatch settle delay.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// Controller is one attached GPIO controller.
type Controller struct {
	soc         *topology.SoC
	cfg         Config
	logger      logging.Logger
	clock       clock.Clock
	loop        *workloop.WorkLoop
	communities []*community
	regions     []mmio.Region
	closed      atomic.Bool

	// Touched only on the loop.
	registered    []uint
	muxClaimed    map[uint]bool
	pinCtx        []pinContext
	suspendedPins []uint
	awake         bool
	interruptBusy bool

	handled  atomic.Uint64
	spurious atomic.Uint64
	skipped  atomic.Uint64
}

// NewFromConfig attaches to the registered topology named by cfg.
func NewFromConfig(
	ctx context.Context,
	cfg *Config,
	resources []mmio.Resource,
	mapper mmio.Mapper,
	logger logging.Logger,
	opts ...Option,
) (*Controller, error) {
	if err := cfg.Validate("pinctrl"); err != nil {
		return nil, err
	}
	soc, ok := registry.LookupSoC(cfg.SoC)
	if !ok {
		return nil, errors.Errorf("no soc registered under name %q", cfg.SoC)
	}
	return New(ctx, soc, resources, mapper, cfg, logger, opts...)
}

// New maps the communities of soc and starts the controller's work loop. Communities whose
// BAR is missing or cannot be mapped are left inactive; at least one must come up.
func New(
	ctx context.Context,
	soc *topology.SoC,
	resources []mmio.Resource,
	mapper mmio.Mapper,
	cfg *Config,
	logger logging.Logger,
	opts ...Option,
) (*Controller, error) {
	if soc == nil {
		return nil, errors.New("soc is required")
	}
	if err := soc.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{SoC: soc.Name}
	}
	if err := cfg.Validate("pinctrl"); err != nil {
		return nil, err
	}
	if cfg.SoC != soc.Name {
		return nil, errors.Errorf("config names soc %q but %q was supplied", cfg.SoC, soc.Name)
	}
	if logger == nil {
		logger = logging.NewBlankLogger("pinctrl")
	}

	c := &Controller{
		soc:        soc,
		cfg:        *cfg,
		logger:     logger,
		clock:      clock.New(),
		muxClaimed: map[uint]bool{},
		pinCtx:     make([]pinContext, len(soc.Pins)),
		awake:      true,
	}
	for _, opt := range opts {
		opt(c)
	}

	guard := utils.NewGuard(func() {
		if err := c.closeRegions(); err != nil {
			logger.Warnw("failed to unmap regions after attach error", "error", err)
		}
	})
	defer guard.OnFail()

	if err := c.attach(ctx, resources, mapper); err != nil {
		return nil, err
	}
	c.irqInit()

	c.loop = workloop.New(soc.Name, logger.Sublogger("workloop"))
	c.loop.SetInterruptHandler(func(ctx context.Context) {
		if _, err := c.dispatch(ctx); err != nil {
			c.logger.Errorw("interrupt dispatch failed", "error", err)
		}
	})

	guard.Success()
	return c, nil
}

func (c *Controller) attach(ctx context.Context, resources []mmio.Resource, mapper mmio.Mapper) error {
	byBar := make(map[uint]mmio.Resource, len(resources))
	for _, res := range resources {
		byBar[res.Bar] = res
	}

	var active int
	for i, desc := range c.soc.Communities {
		if err := ctx.Err(); err != nil {
			return err
		}
		comm := &community{
			idx:       i,
			desc:      desc,
			padGroups: desc.ResolvePadGroups(),
			features:  desc.Features,
			types:     map[uint]InterruptType{},
			bindings:  map[uint]*binding{},
		}
		comm.saved.intmask = make([]uint32, len(comm.padGroups))
		comm.saved.hostown = make([]uint32, len(comm.padGroups))
		c.communities = append(c.communities, comm)

		res, ok := byBar[desc.Bar]
		if !ok {
			c.logger.Warnw("no memory resource for community, leaving it inactive", "community", i, "bar", desc.Bar)
			continue
		}
		region, err := mapper.Map(res)
		if err != nil {
			c.logger.Warnw("failed to map community, leaving it inactive", "community", i, "error", err)
			continue
		}
		c.regions = append(c.regions, region)
		comm.region = region

		if rev := region.Read32(regRevID) >> revIDShift; rev >= revIDDebounce {
			comm.features |= topology.FeatureDebounce | topology.Feature1KPullDown
		}
		comm.padBar = region.Read32(regPadBar)
		if end := comm.registerSpan(); end > uint64(region.Size()) {
			c.logger.Warnw("community registers do not fit its region, leaving it inactive",
				"community", i, "needs", end, "size", region.Size())
			continue
		}
		comm.mapped = true
		comm.active = true
		active++
		c.logger.Debugw("community attached", "community", i, "base", region.Base(),
			"padbar", comm.padBar, "features", comm.features.String(), "pad_groups", len(comm.padGroups))
	}
	if active == 0 {
		return errors.Errorf("none of the %d communities of %q could be mapped", len(c.soc.Communities), c.soc.Name)
	}
	c.logger.Infow("controller attached", "soc", c.soc.Name, "communities", len(c.communities), "active", active)
	return nil
}

// registerSpan returns the end offset of the highest register the community uses.
func (comm *community) registerSpan() uint64 {
	end := uint64(comm.padBar) + uint64(comm.desc.NPins)*uint64(comm.padStride())
	grow := func(off uint32) {
		if uint64(off)+4 > end {
			end = uint64(off) + 4
		}
	}
	for _, g := range comm.padGroups {
		grow(regGPIIS + uint32(g.RegNum)*4)
		if comm.desc.IEOffset != 0 {
			grow(comm.desc.IEOffset + uint32(g.RegNum)*4)
		}
		if comm.desc.HostOwnOffset != 0 {
			grow(comm.desc.HostOwnOffset + uint32(g.RegNum)*4)
		}
		if comm.desc.PadCfgLockOffset != 0 {
			grow(comm.desc.PadCfgLockOffset + uint32(g.RegNum)*lockStride + lockTxOffset)
		}
		if comm.desc.PadOwnOffset != 0 {
			grow(comm.desc.PadOwnOffset + uint32(g.PadOwnNum)*4 + uint32((g.Size-1)/8)*4)
		}
	}
	return end
}

func (comm *community) padStride() uint32 {
	if comm.features.Has(topology.FeatureDebounce) {
		return padCfgStrideDebounce
	}
	return padCfgStride
}

// Close stops the work loop and unmaps every community.
func (c *Controller) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.loop.Close()
	return c.closeRegions()
}

func (c *Controller) closeRegions() error {
	var err error
	for _, r := range c.regions {
		err = multierr.Combine(err, r.Close())
	}
	c.regions = nil
	return err
}

// SoC returns the topology the controller was attached with.
func (c *Controller) SoC() *topology.SoC {
	return c.soc
}

// SetCommunityActive marks a community as powered or unpowered. Inactive communities are skipped
// by dispatch, suspend and resume, and reject pin operations. A community that never mapped
// cannot be activated.
func (c *Controller) SetCommunityActive(ctx context.Context, idx int, active bool) error {
	return c.loop.Run(ctx, func(ctx context.Context) error {
		if idx < 0 || idx >= len(c.communities) {
			return errors.Wrapf(ErrOutOfRange, "community %d", idx)
		}
		comm := c.communities[idx]
		if active && !comm.mapped {
			return errors.Wrapf(ErrNotSupported, "community %d was never mapped", idx)
		}
		if comm.active != active {
			c.logger.Infow("community power changed", "community", idx, "active", active)
		}
		comm.active = active
		return nil
	})
}
