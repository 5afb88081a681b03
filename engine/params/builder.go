package params

// Encoder converts a typed Go value into its native slot encoding.
type Encoder[T any] func(T) Value

// Slot is a typed handle to one registered slot of a Block. It is created by Bind and is
// bound to its block for life, so writes through it can never address a foreign or stale index.
type Slot[T any] struct {
	block  *Block
	index  int
	encode Encoder[T]
}

// Index returns the slot's position in the block.
func (s Slot[T]) Index() int {
	return s.index
}

// Set encodes v and stores it in the slot.
func (s Slot[T]) Set(v T) {
	s.block.slots[s.index] = s.encode(v)
}

// Value returns the currently stored native value.
func (s Slot[T]) Value() Value {
	return s.block.slots[s.index]
}

// Builder registers slots on a Block and returns typed handles for them.
type Builder struct {
	block *Block
}

// NewBuilder returns a Builder for a fresh Block.
func NewBuilder() *Builder {
	return &Builder{block: NewBlock()}
}

// Block returns the block being built. Slots bound later are appended to the same block.
func (b *Builder) Block() *Block {
	return b.block
}

// Bind registers a new slot on the builder's block and returns a typed handle to it.
// The slot starts unset; write an initial value before packing the block.
//
// Parameters:
//   - b: the builder that owns the target block
//   - enc: the encoder for the slot's Go type
//
// Returns:
//   - Slot[T]: the typed handle for the registered slot
func Bind[T any](b *Builder, enc Encoder[T]) Slot[T] {
	return Slot[T]{
		block:  b.block,
		index:  b.block.Register(),
		encode: enc,
	}
}

// Ready-made encoders for the scalar kinds.
var (
	EncodeInt32     Encoder[int32]    = Int32
	EncodeInt64     Encoder[int64]    = Int64
	EncodeFloat32   Encoder[float32]  = Float32
	EncodeFloat64   Encoder[float64]  = Float64
	EncodeDevicePtr Encoder[uint64]   = DevicePtr
	EncodeBool      Encoder[bool]     = Bool
	EncodeInt32Pair Encoder[[2]int32] = func(v [2]int32) Value { return Int32Pair(v[0], v[1]) }
)
