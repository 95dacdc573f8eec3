package simd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func allLevels() []Level { return []Level{LevelNone, LevelSSE42, LevelAVX2} }

func TestCompareEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, size := range []int{0, 1, 15, 16, 31, 32, 63, 64, 65, 200} {
		a := make([]byte, size)
		b := make([]byte, size)
		rnd.Read(a)
		copy(b, a)

		var results []bool
		for _, lvl := range allLevels() {
			o := New(WithLevel(lvl), WithMinSIMDSize(0))
			results = append(results, o.Compare(a, b))
		}
		for _, r := range results {
			require.Equal(t, results[0], r)
		}
		require.True(t, results[0])

		if size > 0 {
			b[size-1] ^= 0xFF
			for _, lvl := range allLevels() {
				o := New(WithLevel(lvl), WithMinSIMDSize(0))
				require.False(t, o.Compare(a, b))
			}
		}
	}
}

func TestSearchEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	haystack := make([]byte, 500)
	rnd.Read(haystack)
	needle := append([]byte{}, haystack[213:229]...)

	for _, lvl := range allLevels() {
		o := New(WithLevel(lvl), WithMinSIMDSize(0))
		idx := o.Search(haystack, needle)
		require.Equal(t, 213, idx)
	}
}

func TestXOREquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	a := make([]byte, 97)
	b := make([]byte, 97)
	rnd.Read(a)
	rnd.Read(b)

	var refs [][]byte
	for _, lvl := range allLevels() {
		o := New(WithLevel(lvl), WithMinSIMDSize(0))
		dst := make([]byte, len(a))
		require.NoError(t, o.XOR(dst, a, b))
		refs = append(refs, dst)
	}
	for _, r := range refs {
		require.Equal(t, refs[0], r)
	}
}

func TestChecksumEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	data := make([]byte, 321)
	rnd.Read(data)

	var sums []uint32
	for _, lvl := range allLevels() {
		o := New(WithLevel(lvl), WithMinSIMDSize(0))
		sums = append(sums, o.Checksum(data))
	}
	for _, s := range sums {
		require.Equal(t, sums[0], s)
	}
}

func TestBelowMinSizeUsesScalar(t *testing.T) {
	o := New(WithLevel(LevelAVX2))
	data := make([]byte, 10)
	o.Checksum(data)
	snap := o.Snapshot()
	require.Equal(t, uint64(1), snap.ScalarCalls)
	require.Equal(t, uint64(0), snap.AVX2Calls)
}
