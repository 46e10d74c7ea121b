package addr

// Peripheral is the subset of peripheral.Bus that Access needs. Declared
// here (rather than importing package peripheral for a concrete type) so
// addr stays the leaf package; peripheral.Bus satisfies this trivially.
type Peripheral interface {
	Read(addr uint32) (value byte, ok bool)
	Write(addr uint32, value byte) (ok bool)
}

// DataWatch is notified on every data load/store that Access performs:
// a store is reported before peripheral dispatch, a load after its value
// has been read. The breakpoint engine uses this to arm
// DataRead/DataWrite/DataRW triggers without Access knowing anything
// about breakpoints (spec.md §4.1/§4.5).
type DataWatch func(a Address, isWrite bool, value byte)

// Access is the MemoryAccess component of spec.md §4.1: it layers
// AddressSpace and the peripheral bus, and is the only thing the decoder
// touches during instruction execution. Region classification happens in
// Space; Access only decides whether a data access is first offered to
// the peripheral bus.
type Access struct {
	Space      *Space
	Peripheral Peripheral
	OnAccess   DataWatch
}

// NewAccess wires an address space to a peripheral bus.
func NewAccess(space *Space, p Peripheral) *Access {
	return &Access{Space: space, Peripheral: p}
}

// Fetch reads one instruction byte, as Space.Fetch — instruction fetches
// never reach the peripheral bus.
func (a *Access) Fetch(addr Address) (byte, error) {
	return a.Space.Fetch(addr)
}

// Load reads one data byte. IO and XIO addresses are offered to the
// peripheral bus first; RAM, ROM, and FLASH are never peripheral
// addresses (none of the table entries in spec.md §4.2 fall in those
// ranges) so they always fall through to plain memory.
func (a *Access) Load(addr Address) byte {
	var v byte
	if a.Peripheral != nil {
		region := Classify(addr)
		if region == RegionIO || region == RegionXIO {
			if pv, ok := a.Peripheral.Read(uint32(addr.Offset())); ok {
				v = pv
				if a.OnAccess != nil {
					a.OnAccess(addr, false, v)
				}
				return v
			}
		}
	}
	v = a.Space.LoadRaw(addr)
	if a.OnAccess != nil {
		a.OnAccess(addr, false, v)
	}
	return v
}

// Store writes one data byte, offering IO/XIO writes to the peripheral
// bus first and falling through to plain memory (including logged-but-
// permitted ROM writes) otherwise.
func (a *Access) Store(addr Address, v byte) {
	if a.OnAccess != nil {
		a.OnAccess(addr, true, v)
	}
	if a.Peripheral != nil {
		region := Classify(addr)
		if region == RegionIO || region == RegionXIO {
			if a.Peripheral.Write(uint32(addr.Offset()), v) {
				return
			}
		}
	}
	a.Space.StoreRaw(addr, v)
}

// LoadRaw/StoreRaw bypass the peripheral bus and breakpoint watch
// entirely — used by inspection tools and the protocol harness.
func (a *Access) LoadRaw(addr Address) byte       { return a.Space.LoadRaw(addr) }
func (a *Access) StoreRaw(addr Address, v byte)   { a.Space.StoreRaw(addr, v) }
func (a *Access) LoadRawBlock(addr Address, n int) []byte { return a.Space.LoadRawBlock(addr, n) }
