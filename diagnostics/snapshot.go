package diagnostics

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/go-freestanding/holeheap/heap"
	"github.com/go-freestanding/holeheap/utils"
)

// snapshotMagic tags the wire format so Load can reject unrelated data.
const snapshotMagic = uint32(0x484c4831) // "HLH1"

// Snapshot encodes a point-in-time dump of a heap's shape (its bounds,
// usage, and every free hole) and compresses it with brotli. Intended for
// a crash-dump/post-mortem path: capturing allocator state compactly
// without a live debugger attached.
//
// Wire format (all integers little-endian, before compression):
//
//	magic     uint32
//	bottom    uint64
//	top       uint64
//	size      uint64
//	used      uint64
//	holeCount uint32
//	holes     [holeCount](addr uint64, size uint64)
func Snapshot(h *heap.Heap) ([]byte, error) {
	holes := h.Holes()

	raw := make([]byte, 0, 4+8*4+4+len(holes)*16)
	buf := bytes.NewBuffer(raw)

	var scratch [8]byte

	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		buf.Write(scratch[:4])
	}

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:8], v)
		buf.Write(scratch[:8])
	}

	putU32(snapshotMagic)
	putU64(uint64(h.Bottom()))
	putU64(uint64(h.Top()))
	putU64(uint64(h.Size()))
	putU64(uint64(h.Used()))
	putU32(uint32(len(holes)))

	for _, hole := range holes {
		putU64(uint64(hole.Addr))
		putU64(uint64(hole.Size))
	}

	var compressed bytes.Buffer

	w := brotli.NewWriter(&compressed)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, utils.WrapError(err, "diagnostics: compress snapshot")
	}

	if err := w.Close(); err != nil {
		return nil, utils.WrapError(err, "diagnostics: close snapshot writer")
	}

	return compressed.Bytes(), nil
}

// Snap is a decoded Snapshot: the fields Load recovers, without
// reconstructing a live Heap (the allocator does not expose a way to adopt
// an externally-described hole list, by design; a Snap is read-only
// forensic data, not a handle to resume allocating from).
type Snap struct {
	Bottom uintptr
	Top    uintptr
	Size   uintptr
	Used   uintptr
	Holes  []heap.Hole
}

// Load decodes a Snapshot produced by Snapshot.
func Load(data []byte) (Snap, error) {
	r := brotli.NewReader(bytes.NewReader(data))

	var scratch [8]byte

	readU32 := func() (uint32, error) {
		if _, err := io.ReadFull(r, scratch[:4]); err != nil {
			return 0, err
		}

		return binary.LittleEndian.Uint32(scratch[:4]), nil
	}

	readU64 := func() (uint64, error) {
		if _, err := io.ReadFull(r, scratch[:8]); err != nil {
			return 0, err
		}

		return binary.LittleEndian.Uint64(scratch[:8]), nil
	}

	magic, err := readU32()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read snapshot magic")
	}

	if magic != snapshotMagic {
		return Snap{}, utils.NewError("diagnostics: not a holeheap snapshot")
	}

	bottom, err := readU64()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read bottom")
	}

	top, err := readU64()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read top")
	}

	size, err := readU64()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read size")
	}

	used, err := readU64()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read used")
	}

	count, err := readU32()
	if err != nil {
		return Snap{}, utils.WrapError(err, "diagnostics: read hole count")
	}

	holes := make([]heap.Hole, 0, count)

	for i := uint32(0); i < count; i++ {
		addr, err := readU64()
		if err != nil {
			return Snap{}, utils.WrapError(err, "diagnostics: read hole addr")
		}

		holeSize, err := readU64()
		if err != nil {
			return Snap{}, utils.WrapError(err, "diagnostics: read hole size")
		}

		holes = append(holes, heap.Hole{Addr: uintptr(addr), Size: uintptr(holeSize)})
	}

	return Snap{
		Bottom: uintptr(bottom),
		Top:    uintptr(top),
		Size:   uintptr(size),
		Used:   uintptr(used),
		Holes:  holes,
	}, nil
}
