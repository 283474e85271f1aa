package osmem

//go:generate mockgen -source mapper.go -destination mocks/mapper.go -package mocks

// Mapper obtains and releases page-aligned memory
type Mapper interface {
	// Map returns the address of size bytes of fresh, zeroed, read-write memory
	Map(size int) (uintptr, error)
	// Unmap releases a mapping previously returned by Map. size must be the value passed to Map.
	Unmap(address uintptr, size int) error
}

// System is the Mapper backed by the operating system
type System struct{}

var _ Mapper = System{}

func (System) Map(size int) (uintptr, error) {
	return Map(size)
}

func (System) Unmap(address uintptr, size int) error {
	return Unmap(address, size)
}
