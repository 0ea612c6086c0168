package heap

// holeList is an ordered intrusive linked list of free blocks. It has no
// memory of its own: every node lives inside the managed region
// [bottom, top), and firstNext plays the role of a sentinel head's "next"
// field (the sentinel itself never needs a real address, since nothing
// ever points *at* it; it only points into the region).
type holeList struct {
	firstNext uintptr // address of the first real hole, or 0 if the list is empty
}

// initRegion places a single hole spanning [addr, addr+size) as the entire
// initial free list, provided size is large enough to hold a Hole header.
// Undersized regions are left with an empty list.
func (hl *holeList) initRegion(addr, size uintptr) {
	if size < holeHeaderSize {
		return
	}

	h := holeAt(addr)
	h.size = size
	h.next = 0

	hl.firstNext = addr
}

// allocateFirstFit walks the list in address order and returns the first
// block that can satisfy (reqSize, reqAlign) after normalization, splitting
// off front/back pad holes as needed. Returns ok=false, leaving the list
// unchanged, if no block fits.
func (hl *holeList) allocateFirstFit(reqSize, reqAlign uintptr) (addr uintptr, actualSize uintptr, ok bool) {
	reqSize, reqAlign = normalize(reqSize, reqAlign)

	prevNext := &hl.firstNext
	cursor := hl.firstNext

	for cursor != 0 {
		node := holeAt(cursor)
		nodeSize := node.size
		nodeNext := node.next

		cand, fits := fit(cursor, nodeSize, reqSize, reqAlign)
		if !fits {
			prevNext = &node.next
			cursor = nodeNext

			continue
		}

		// The chosen node is unlinked here; up to two replacement holes are
		// spliced back in below, built tail-first so each write knows its
		// own "next".
		tail := nodeNext

		if cand.backHole > 0 {
			backAddr := cand.alignedAt + reqSize
			b := holeAt(backAddr)
			b.size = cand.backHole
			b.next = tail
			tail = backAddr
		}

		if cand.frontPad >= holeHeaderSize {
			f := holeAt(cursor)
			f.size = cand.frontPad
			f.next = tail
			tail = cursor
		}

		*prevNext = tail

		return cand.alignedAt, cand.actualSize, true
	}

	return 0, 0, false
}

// deallocate inserts a freed block of (addr, size) into the list in address
// order, coalescing with the previous and/or next block when they are
// exactly adjacent. (addr, size) must be a block this list previously
// handed out via allocateFirstFit (or the region registered at init),
// undefined behavior otherwise.
func (hl *holeList) deallocate(addr, size uintptr) {
	prevField := &hl.firstNext
	prevAddr := uintptr(0)
	havePrev := false

	cursor := hl.firstNext
	for cursor != 0 && cursor <= addr {
		node := holeAt(cursor)
		prevField = &node.next
		prevAddr = cursor
		havePrev = true
		cursor = node.next
	}

	nextAddr := cursor

	mergedWithPrev := false
	mergeSize := size

	if havePrev {
		prev := holeAt(prevAddr)
		if prevAddr+prev.size == addr {
			mergeSize = prev.size + size
			mergedWithPrev = true
		}
	}

	mergeAddr := addr
	if mergedWithPrev {
		mergeAddr = prevAddr
	}

	if nextAddr != 0 {
		next := holeAt(nextAddr)
		if mergeAddr+mergeSize == nextAddr {
			mergeSize += next.size
			nextAddr = next.next
		}
	}

	if mergedWithPrev {
		prev := holeAt(prevAddr)
		prev.size = mergeSize
		prev.next = nextAddr

		return
	}

	node := holeAt(addr)
	node.size = mergeSize
	node.next = nextAddr
	*prevField = addr
}

// holes returns every free block in address order. It never escapes raw
// pointers, only each block's address and the size read from its header.
func (hl *holeList) holes() []Hole {
	var out []Hole

	for cursor := hl.firstNext; cursor != 0; {
		node := holeAt(cursor)
		out = append(out, Hole{Addr: cursor, Size: node.size})
		cursor = node.next
	}

	return out
}
