package diagnostics

import (
	"encoding/binary"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/go-freestanding/holeheap/utils"
)

// FreeSentinel is a probabilistic, best-effort tracker of recently-freed
// addresses. It is strictly an observability aid: a positive hit means
// "probably freed before, go check your own bookkeeping" and is never used
// to block or alter an allocation. Bloom filters admit false positives by
// design and never false negatives, so a negative hit is authoritative but
// a positive one is not.
type FreeSentinel struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	logger *utils.Logger
}

// NewFreeSentinel creates a sentinel sized for expectedFrees addresses at
// the given false-positive rate.
func NewFreeSentinel(expectedFrees uint, falsePositiveRate float64) *FreeSentinel {
	return &FreeSentinel{
		filter: bloom.NewWithEstimates(expectedFrees, falsePositiveRate),
		logger: utils.DefaultLogger("diagnostics.sentinel"),
	}
}

// Observe records addr as freed and returns true if the filter had already
// seen it (a probable double free, worth the caller's own verification).
func (s *FreeSentinel) Observe(addr uintptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := addrKey(addr)
	probablySeen := s.filter.Test(key)

	s.filter.Add(key)

	if probablySeen {
		s.logger.Warn("address probably freed before",
			utils.String("addr", formatAddr(addr)),
		)
	}

	return probablySeen
}

func addrKey(addr uintptr) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(addr))

	return buf
}

func formatAddr(addr uintptr) string {
	const hexDigits = "0123456789abcdef"

	buf := make([]byte, 18)
	buf[0] = '0'
	buf[1] = 'x'

	for i := 0; i < 16; i++ {
		shift := uint(60 - i*4)
		buf[2+i] = hexDigits[(addr>>shift)&0xf]
	}

	return string(buf)
}
