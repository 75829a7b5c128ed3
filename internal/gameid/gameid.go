// Package gameid issues the identifiers the server attaches to each game.
//
// IDs are UUIDv7 values written as 26 characters of Crockford base32, the
// same layout TypeID uses. They sort by creation time.
package gameid

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/pebbles/internal/randutil"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID.
const Length = 26

// Generator builds IDs from a clock and a randomness source.
type Generator struct {
	mu    sync.Mutex
	clock quartz.Clock
	rng   randutil.Source
}

// NewGenerator returns a generator. A nil clock uses the wall clock and a nil
// source reads from crypto/rand.
func NewGenerator(clock quartz.Clock, rng randutil.Source) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if rng == nil {
		rng = cryptoSource{}
	}
	return &Generator{clock: clock, rng: rng}
}

// Generate creates a new game ID with the wall clock and crypto randomness.
func Generate() string {
	return NewGenerator(nil, nil).Generate()
}

// Generate creates a new game ID.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return encode(g.uuidV7())
}

// uuidV7 lays out a 48-bit millisecond timestamp followed by 80 random bits,
// then stamps the version and variant.
func (g *Generator) uuidV7() [16]byte {
	var uuid [16]byte

	now := uint64(g.clock.Now().UnixMilli())
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	for i := 6; i < 16; i += 4 {
		var word [4]byte
		binary.BigEndian.PutUint32(word[:], g.rng.Uint32())
		copy(uuid[i:], word[:])
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return uuid
}

// encode writes the 128 bits as 26 five-bit groups with two leading zero
// bits, so the first character is always 0-7.
func encode(data [16]byte) string {
	hi := binary.BigEndian.Uint64(data[:8])
	lo := binary.BigEndian.Uint64(data[8:])

	out := make([]byte, Length)
	for i := range out {
		out[i] = alphabet[group(hi, lo, uint(5*(Length-1-i)))]
	}
	return string(out)
}

func group(hi, lo uint64, shift uint) uint64 {
	switch {
	case shift >= 64:
		return (hi >> (shift - 64)) & 0x1f
	case shift == 0:
		return lo & 0x1f
	default:
		return ((lo >> shift) | (hi << (64 - shift))) & 0x1f
	}
}

// Parse decodes an ID back into its UUID bytes.
func Parse(id string) ([16]byte, error) {
	var uuid [16]byte
	if err := Validate(id); err != nil {
		return uuid, err
	}

	var hi, lo uint64
	for i := 0; i < Length; i++ {
		v := uint64(decodeChar(id[i]))
		hi = hi<<5 | lo>>59
		lo = lo<<5 | v
	}
	binary.BigEndian.PutUint64(uuid[:8], hi)
	binary.BigEndian.PutUint64(uuid[8:], lo)
	return uuid, nil
}

// Time returns the creation time embedded in an ID, to the millisecond.
func Time(id string) (time.Time, error) {
	uuid, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	ms := int64(uuid[0])<<40 | int64(uuid[1])<<32 | int64(uuid[2])<<24 |
		int64(uuid[3])<<16 | int64(uuid[4])<<8 | int64(uuid[5])
	return time.UnixMilli(ms), nil
}

// Validate checks if a game ID is valid (26 characters, valid base32)
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}

	// ≤ 128 bits
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}

	for i := 0; i < len(id); i++ {
		if decodeChar(id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

func decodeChar(c byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return i
		}
	}
	return -1
}

type cryptoSource struct{}

func (cryptoSource) Uint32() uint32 {
	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return binary.BigEndian.Uint32(b[:])
}
