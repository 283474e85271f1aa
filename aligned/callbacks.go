package aligned

// AllocateMemoryCallback is called after an allocator maps memory for a new allocation
type AllocateMemoryCallback func(
	allocator *Allocator,
	address Address,
	size int,
	userData interface{},
)

// FreeMemoryCallback is called after an allocator unmaps the memory of an allocation
type FreeMemoryCallback func(
	allocator *Allocator,
	address Address,
	size int,
	userData interface{},
)

type MemoryCallbackOptions struct {
	Allocate AllocateMemoryCallback
	Free     FreeMemoryCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Allocator *Allocator
}

func (c *memoryCallbacks) Allocate(
	address Address,
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Allocator, address, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(
	address Address,
	size int,
) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Allocator, address, size, c.Callbacks.UserData)
	}
}
