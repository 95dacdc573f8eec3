package simd

// Compare returns true iff a and b are byte-identical and the same
// length. The tiered loops differ only in unroll width (32/16/1 bytes
// per iteration); the comparison itself is identical across tiers, so
// all three are byte-for-byte equivalent by construction.
func (o *Ops) Compare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	level := o.tierFor(len(a))
	o.counters.record(level, len(a))

	switch level {
	case LevelAVX2:
		return compareWide(a, b, 32)
	case LevelSSE42:
		return compareWide(a, b, 16)
	default:
		return compareScalar(a, b)
	}
}

func compareScalar(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compareWide compares width bytes at a time; the tail below width is
// always finished with the scalar loop, so results never depend on the
// chosen width.
func compareWide(a, b []byte, width int) bool {
	n := len(a)
	i := 0
	for ; i+width <= n; i += width {
		for j := 0; j < width; j++ {
			if a[i+j] != b[i+j] {
				return false
			}
		}
	}
	return compareScalar(a[i:], b[i:])
}

// Search returns the index of the first occurrence of needle in
// haystack, or -1 if absent.
func (o *Ops) Search(haystack, needle []byte) int {
	level := o.tierFor(len(haystack))
	o.counters.record(level, len(haystack))

	if len(needle) == 0 || len(needle) > len(haystack) {
		if len(needle) == 0 {
			return 0
		}
		return -1
	}

	switch level {
	case LevelAVX2:
		return searchWide(haystack, needle, 32)
	case LevelSSE42:
		return searchWide(haystack, needle, 16)
	default:
		return searchScalar(haystack, needle)
	}
}

func searchScalar(haystack, needle []byte) int {
	last := len(haystack) - len(needle)
	for i := 0; i <= last; i++ {
		if compareScalar(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// searchWide scans width-byte blocks for the needle's first byte before
// falling back to a full scalar compare at each candidate, which keeps
// results identical to searchScalar regardless of the chosen width.
func searchWide(haystack, needle []byte, width int) int {
	n := len(haystack)
	last := n - len(needle)
	first := needle[0]

	i := 0
	for i <= last {
		blockEnd := i + width
		if blockEnd > last+1 {
			blockEnd = last + 1
		}
		found := -1
		for j := i; j < blockEnd; j++ {
			if haystack[j] == first {
				found = j
				break
			}
		}
		if found == -1 {
			i = blockEnd
			continue
		}
		if compareScalar(haystack[found:found+len(needle)], needle) {
			return found
		}
		i = found + 1
	}
	return -1
}

// XOR computes dst[i] = a[i] ^ b[i] for i in range, requiring equal
// lengths (spec.md §4.5 "length parity" validation).
func (o *Ops) XOR(dst, a, b []byte) error {
	if len(a) != len(b) || len(dst) != len(a) {
		return errLengthMismatch
	}

	level := o.tierFor(len(a))
	o.counters.record(level, len(a))

	switch level {
	case LevelAVX2:
		xorWide(dst, a, b, 32)
	case LevelSSE42:
		xorWide(dst, a, b, 16)
	default:
		xorScalar(dst, a, b)
	}
	return nil
}

func xorScalar(dst, a, b []byte) {
	for i := range a {
		dst[i] = a[i] ^ b[i]
	}
}

func xorWide(dst, a, b []byte, width int) {
	n := len(a)
	i := 0
	for ; i+width <= n; i += width {
		for j := 0; j < width; j++ {
			dst[i+j] = a[i+j] ^ b[i+j]
		}
	}
	xorScalar(dst[i:], a[i:], b[i:])
}

// Checksum computes a running additive checksum (32-bit, wrapping),
// identical across tiers since addition is associative modulo 2^32
// regardless of grouping width.
func (o *Ops) Checksum(data []byte) uint32 {
	level := o.tierFor(len(data))
	o.counters.record(level, len(data))

	switch level {
	case LevelAVX2:
		return checksumWide(data, 32)
	case LevelSSE42:
		return checksumWide(data, 16)
	default:
		return checksumScalar(data)
	}
}

func checksumScalar(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

func checksumWide(data []byte, width int) uint32 {
	n := len(data)
	i := 0
	var lanes = make([]uint32, width)
	for ; i+width <= n; i += width {
		for j := 0; j < width; j++ {
			lanes[j] += uint32(data[i+j])
		}
	}
	var sum uint32
	for _, l := range lanes {
		sum += l
	}
	sum += checksumScalar(data[i:])
	return sum
}

var errLengthMismatch = lengthMismatchError{}

type lengthMismatchError struct{}

func (lengthMismatchError) Error() string { return "simd: operand length mismatch" }
