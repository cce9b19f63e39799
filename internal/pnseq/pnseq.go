// Package pnseq derives the ±1 spreading sequences used to carry one payload bit per segment.
//
// A sequence is a pure function of (key, index, length): the string "{key}_{index}" is
// hashed with SHA-256, the first four digest bytes (little-endian) seed a 32-bit
// Mersenne Twister, and every draw maps the low bit of genrand_uint32 to -1 or +1.
// Only the generator's standard seeding and output are used, so any MT19937
// implementation reproduces the same sequences.
package pnseq

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"gonum.org/v1/gonum/mathext/prng"
)

// Seed returns the generator seed for the index-th segment of key.
func Seed(key string, index int) uint32 {
	h := sha256.Sum256([]byte(key + "_" + strconv.Itoa(index)))
	return binary.LittleEndian.Uint32(h[:4])
}

// Generate returns a new sequence of length values in {-1, +1}.
// A non-positive length yields an empty sequence.
func Generate(key string, index, length int) []float64 {
	if length < 0 {
		length = 0
	}
	seq := make([]float64, length)
	Fill(seq, key, index)
	return seq
}

// Fill overwrites dst with the sequence for (key, index, len(dst)).
func Fill(dst []float64, key string, index int) {
	fillSeed(dst, Seed(key, index))
}

func fillSeed(dst []float64, seed uint32) {
	src := prng.NewMT19937()
	src.Seed(uint64(seed))
	for i := range dst {
		if src.Uint32()&1 == 1 {
			dst[i] = 1
		} else {
			dst[i] = -1
		}
	}
}
