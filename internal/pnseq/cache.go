package pnseq

import (
	"strconv"
	"sync"
)

// Cache memoizes sequences so that repeated passes over signals sharing a key and
// segment length generate each sequence once. Returned slices must not be modified.
type Cache struct {
	data sync.Map
}

func NewCache() *Cache {
	var c Cache
	return &c
}

// Get returns the cached sequence for (key, index, length), generating it on first use.
func (c *Cache) Get(key string, index, length int) []float64 {
	k := cacheKey(key, index, length)
	if v, ok := c.data.Load(k); ok {
		return v.([]float64)
	}
	seq := Generate(key, index, length)
	actual, loaded := c.data.LoadOrStore(k, seq)
	if loaded {
		return actual.([]float64)
	}
	return seq
}

// Len reports the number of cached sequences.
func (c *Cache) Len() int {
	n := 0
	c.data.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func cacheKey(key string, index, length int) string {
	return strconv.Itoa(length) + "/" + strconv.Itoa(index) + "/" + key
}
