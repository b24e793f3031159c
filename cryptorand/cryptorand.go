// Package cryptorand adapts crypto/rand into a math/rand Source, so
// board deals and seat shuffles are unpredictable in production while
// tests can still seed a deterministic generator.
package cryptorand

import (
	crand "crypto/rand"
	"math/rand"
)

func NewSource() Source {
	return Source{}
}

// NewRand returns a *rand.Rand drawing from the OS entropy source.
func NewRand() *rand.Rand {
	return rand.New(NewSource())
}

type Source struct{}

func (Source) Int63() int64 {
	var buf [8]byte
	_, err := crand.Read(buf[:])
	if err != nil {
		panic(err)
	}
	return int64(buf[0]) |
		int64(buf[1])<<8 |
		int64(buf[2])<<16 |
		int64(buf[3])<<24 |
		int64(buf[4])<<32 |
		int64(buf[5])<<40 |
		int64(buf[6])<<48 |
		int64(buf[7]&0x7f)<<56
}

func (Source) Seed(int64) {}
