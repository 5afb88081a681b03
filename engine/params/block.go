// Package params holds the kernel parameter block: an ordered, index-stable array of native-width
// argument slots handed verbatim to a compute entry point.
//
// Slots are appended with Register and never removed or reordered. Callers that own a layout should
// go through a Builder, which hands out typed Slot handles bound at construction time instead of raw
// integer indices.
package params

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a slot index is outside the registered range.
	ErrIndexOutOfRange = errors.New("params: slot index out of range")

	// ErrUnsetSlot is returned when the block is packed while a registered slot was never written.
	ErrUnsetSlot = errors.New("params: slot registered but never set")
)

// Block is the ordered collection of parameter slots for one kernel binding.
// It is not safe for concurrent use; it is owned by the render thread.
type Block struct {
	slots []Value
}

// NewBlock returns an empty Block.
func NewBlock() *Block {
	return &Block{}
}

// Register appends a new uninitialised slot and returns its index.
// The first call returns 0 and every later call returns the previous index plus one.
//
// Returns:
//   - int: the stable index of the new slot
func (b *Block) Register() int {
	b.slots = append(b.slots, Value{})
	return len(b.slots) - 1
}

// Set overwrites the value at index in place.
//
// Parameters:
//   - index: a previously registered slot index
//   - v: the native value to store
//
// Returns:
//   - error: ErrIndexOutOfRange if index is not registered
func (b *Block) Set(index int, v Value) error {
	if index < 0 || index >= len(b.slots) {
		return fmt.Errorf("set slot %d of %d: %w", index, len(b.slots), ErrIndexOutOfRange)
	}
	b.slots[index] = v
	return nil
}

// Get returns the value stored at index.
//
// Parameters:
//   - index: a previously registered slot index
//
// Returns:
//   - Value: the stored value, invalid if the slot was never written
//   - error: ErrIndexOutOfRange if index is not registered
func (b *Block) Get(index int) (Value, error) {
	if index < 0 || index >= len(b.slots) {
		return Value{}, fmt.Errorf("get slot %d of %d: %w", index, len(b.slots), ErrIndexOutOfRange)
	}
	return b.slots[index], nil
}

// Len returns the number of registered slots.
func (b *Block) Len() int {
	return len(b.slots)
}

// Offsets returns the byte offset of every slot in the packed layout produced by Bytes.
// Unset slots are reported with offset -1 and do not advance the layout.
func (b *Block) Offsets() []int {
	offsets := make([]int, len(b.slots))
	offset := 0
	for i, v := range b.slots {
		if !v.Valid() {
			offsets[i] = -1
			continue
		}
		offset = alignUp(offset, v.Align())
		offsets[i] = offset
		offset += v.Size()
	}
	return offsets
}

// Bytes packs every slot in registration order using natural C alignment (each slot aligned
// to the width of its element), and pads the total size to the widest alignment used.
// This is the payload a kernel sees for its argument struct.
//
// Returns:
//   - []byte: the packed little-endian payload
//   - error: ErrUnsetSlot if any registered slot has not been written
func (b *Block) Bytes() ([]byte, error) {
	size := 0
	maxAlign := 1
	for i, v := range b.slots {
		if !v.Valid() {
			return nil, fmt.Errorf("pack slot %d: %w", i, ErrUnsetSlot)
		}
		size = alignUp(size, v.Align())
		size += v.Size()
		maxAlign = max(maxAlign, v.Align())
	}
	size = alignUp(size, maxAlign)

	out := make([]byte, size)
	for i, offset := range b.Offsets() {
		v := b.slots[i]
		copy(out[offset:], v.raw[:v.Size()])
	}
	return out, nil
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) / align * align
}
