package main

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

func newRand() *rand.Rand {
	var seedBytes [8]byte
	crand.Read(seedBytes[:])
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

// randomValue returns a fresh value and the key derived from it.
func randomValue(rng *rand.Rand, h func([]byte) []byte) (key, value string) {
	var buf [suffixLen / 2]byte
	if _, err := rng.Read(buf[:]); err != nil {
		panic(err)
	}
	value = fmt.Sprintf("%s%x", prefix, buf)
	return hex.EncodeToString(h([]byte(value))), value
}

func main() {
	nPairs := flag.Int("n", 1000000, "number of key:value lines")
	repeat := flag.Float64("repeat", 0.3, "fraction of lines that add a new version of an earlier key")
	flag.Parse()

	rng := newRand()
	mac := hmac.New(sha256.New, []byte(hmacKey))
	sum := func(b []byte) []byte {
		mac.Reset()
		mac.Write(b)
		return mac.Sum(nil)
	}

	keys := make([]string, 0, *nPairs)
	for i := 0; i < *nPairs; i++ {
		key, value := randomValue(rng, sum)
		if len(keys) > 0 && rng.Float64() < *repeat {
			key = keys[rng.Intn(len(keys))]
		} else {
			keys = append(keys, key)
		}

		fmt.Printf("%s:%s\n", key, value)
	}
}
