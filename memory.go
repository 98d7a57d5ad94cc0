package pyv

// ReadPort is a combinational read: when Enable is asserted, RData
// reflects the word at Addr (sized by Width) every cycle, with no
// latency. An out-of-range address returns 0 rather than faulting —
// transient addresses occur constantly during propagation before a
// stage's legality check has run, and only a committed, checked access
// should ever raise SegmentationFaultError.
type ReadPort struct {
	Enable *Port[bool]
	Width  *Port[int]
	Addr   *Port[uint32]
	RData  *Port[uint32]
}

// WritePort latches a store during propagation and commits it to memory
// when the kernel ticks, so a store performed this cycle is not visible
// to a read in the same cycle.
type WritePort struct {
	Enable *Port[bool]
	Width  *Port[int]
	Addr   *Port[uint32]
	WData  *Port[uint32]
}

// Memory is a flat byte-addressable little-endian memory with two
// independent read ports (one for instruction fetch, one for data loads)
// and a single clocked write port.
type Memory struct {
	k     *Kernel
	data  []byte
	Read0 ReadPort
	Read1 ReadPort
	Write WritePort
}

// NewMemory allocates size bytes of zeroed memory and wires its ports.
func NewMemory(k *Kernel, size int) *Memory {
	m := &Memory{k: k, data: make([]byte, size)}

	m.Read0 = newReadPort(k, "mem.read0")
	m.Read1 = newReadPort(k, "mem.read1")
	m.Write = WritePort{
		Enable: NewPort[bool](k, "mem.write.enable"),
		Width:  NewPort[int](k, "mem.write.width"),
		Addr:   NewPort[uint32](k, "mem.write.addr"),
		WData:  NewPort[uint32](k, "mem.write.wdata"),
	}

	process0 := func() { m.processRead(&m.Read0) }
	process1 := func() { m.processRead(&m.Read1) }
	m.Read0.Enable.Sensitive(process0)
	m.Read0.Width.Sensitive(process0)
	m.Read0.Addr.Sensitive(process0)
	m.Read1.Enable.Sensitive(process1)
	m.Read1.Width.Sensitive(process1)
	m.Read1.Addr.Sensitive(process1)

	k.registerClocked(m)
	return m
}

func newReadPort(k *Kernel, name string) ReadPort {
	return ReadPort{
		Enable: NewPort[bool](k, name+".enable"),
		Width:  NewPort[int](k, name+".width"),
		Addr:   NewPort[uint32](k, name+".addr"),
		RData:  NewPort[uint32](k, name+".rdata"),
	}
}

func (m *Memory) processRead(p *ReadPort) {
	if !p.Enable.Read() {
		return
	}
	p.RData.Write(m.read(p.Addr.Read(), p.Width.Read()))
}

func (m *Memory) read(addr uint32, width int) uint32 {
	if int(addr)+width > len(m.data) || width != 1 && width != 2 && width != 4 {
		return 0
	}
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(m.data[int(addr)+i]) << (8 * i)
	}
	return v
}

// Bounds reports whether a width-byte access at addr lands entirely
// within memory. Stages call this from a stable hook, before the access
// is allowed to commit, so an out-of-range store raises
// SegmentationFaultError instead of silently corrupting memory.
func (m *Memory) Bounds(addr uint32, width int) error {
	if int(addr)+width > len(m.data) || int(addr) < 0 {
		return SegmentationFaultError{Addr: addr}
	}
	return nil
}

// ReadBytes returns a copy of [addr, addr+n) for inspection by tests and
// result sinks, without going through a ReadPort.
func (m *Memory) ReadBytes(addr uint32, n int) []byte {
	out := make([]byte, n)
	copy(out, m.data[addr:int(addr)+n])
	return out
}

// LoadImage copies a program image starting at address 0.
func (m *Memory) LoadImage(image []byte) {
	copy(m.data, image)
}

// tick commits a staged write. Per spec §7.5, an invalid width is fatal
// at commit time regardless of what decode-stage legality checks already
// excluded upstream: the memory device enforces its own {1,2,4}-byte
// contract rather than trusting every caller to have checked first.
func (m *Memory) tick() error {
	if !m.Write.Enable.Read() {
		return nil
	}
	addr := m.Write.Addr.Read()
	width := m.Write.Width.Read()
	wdata := m.Write.WData.Read()
	if width != 1 && width != 2 && width != 4 {
		return InvalidWidthError{Width: width}
	}
	if int(addr)+width > len(m.data) {
		return nil
	}
	for i := 0; i < width; i++ {
		m.data[int(addr)+i] = byte(wdata >> (8 * i))
	}
	return nil
}
