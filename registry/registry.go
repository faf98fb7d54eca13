// Package registry operates the global registry of SoC topologies. Platform packages register
// their tables from init; the driver looks them up by the name given in its config.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/pinctrl/topology"
)

var (
	socRegistryMu sync.RWMutex
	socRegistry   = map[string]*topology.SoC{}
)

// RegisterSoC registers a topology under its name. It panics on an invalid table or a name that
// is already taken, since both are programming errors in platform code.
func RegisterSoC(soc *topology.SoC) {
	if soc == nil {
		panic(errors.New("cannot register a nil soc"))
	}
	if err := soc.Validate(); err != nil {
		panic(err)
	}

	socRegistryMu.Lock()
	defer socRegistryMu.Unlock()
	if _, old := socRegistry[soc.Name]; old {
		panic(errors.Errorf("trying to register two socs with same name %s", soc.Name))
	}
	socRegistry[soc.Name] = soc
}

// LookupSoC returns the topology registered under name.
func LookupSoC(name string) (*topology.SoC, bool) {
	socRegistryMu.RLock()
	defer socRegistryMu.RUnlock()
	soc, ok := socRegistry[name]
	return soc, ok
}

// RegisteredSoCs returns the names of every registered topology, sorted.
func RegisteredSoCs() []string {
	socRegistryMu.RLock()
	defer socRegistryMu.RUnlock()
	names := make([]string, 0, len(socRegistry))
	for name := range socRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func deregisterSoC(name string) {
	socRegistryMu.Lock()
	defer socRegistryMu.Unlock()
	delete(socRegistry, name)
}
