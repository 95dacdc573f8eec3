package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	p := NewPipeline(Config{Threshold: 16, StaticDefault: AlgorithmZlib}, nil)

	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50)

	res, err := p.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, AlgorithmZlib, res.Algorithm)

	out, err := Decompress(res.Bytes, res.Algorithm)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 200)

	for _, algo := range []Algorithm{AlgorithmZlib, AlgorithmZstd, AlgorithmCzlib} {
		codec := codecFor(algo)
		compressed, err := codec.Compress(payload)
		require.NoError(t, err)

		out, err := codec.Decompress(compressed)
		require.NoError(t, err)
		require.True(t, bytes.Equal(payload, out), "round trip mismatch for %s", algo)
	}
}

func TestBelowThresholdPassesThrough(t *testing.T) {
	p := NewPipeline(Config{Threshold: 128}, nil)
	payload := []byte("short")

	res, err := p.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, AlgorithmNone, res.Algorithm)
	require.Equal(t, payload, res.Bytes)
}

func TestBatchRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var msgs [][]byte
	for i := 0; i < 10; i++ {
		buf := make([]byte, rnd.Intn(50)+1)
		rnd.Read(buf)
		msgs = append(msgs, buf)
	}

	encoded := EncodeBatch(msgs)
	decoded, err := DecodeBatch(encoded)
	require.NoError(t, err)
	require.Equal(t, msgs, decoded)
}
