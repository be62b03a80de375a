// Copyright (c) 2025 StratX21

// Package idgen generates a deterministic sequence of uuids from a seed
// string. Client-order-ids for broker requests are drawn from this sequence
// so that a restarted session regenerates the same ids.
package idgen

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Generator struct {
	mu sync.Mutex

	seed string

	offset uint64
}

// New creates a uuid sequence generator at the given offset in the sequence
// determined by the seed.
func New(seed string, offset uint64) *Generator {
	return &Generator{
		seed:   seed,
		offset: offset,
	}
}

func (g *Generator) Offset() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.offset
}

// NextID returns the next uuid in the sequence.
func (g *Generator) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuidAt(g.seed, g.offset)
	g.offset++
	return id
}

// RevertID takes back the most recently issued uuid, so that it is returned
// again by the next NextID call.
func (g *Generator) RevertID() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.offset > 0 {
		g.offset--
	}
}

func uuidAt(seed string, offset uint64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d", seed, offset)))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(sum[:8]))
	binary.BigEndian.PutUint64(buf[8:], binary.BigEndian.Uint64(sum[8:]))
	u, _ := uuid.FromBytes(buf[:])
	return u.String()
}
