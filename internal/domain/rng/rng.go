// Package rng supplies injectable random sources so that engines which add
// "realism" noise stay reproducible.
//
// Sources are derived per key (typically an event id), which makes every
// draw independent of call order: the same seed and key always produce the
// same sequence, no matter how many other keys were drawn before.
package rng

import (
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Midpoint is the value a neutral source yields. Jitter centered on it is zero.
const Midpoint = 0.5

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Provider hands out a Source for a key.
type Provider interface {
	For(key string) Source
}

type constant float64

func (c constant) Float64() float64 { return float64(c) }

type fixedProvider struct{ v constant }

func (p fixedProvider) For(string) Source { return p.v }

// Neutral returns a provider whose sources always yield Midpoint.
func Neutral() Provider { return fixedProvider{v: Midpoint} }

// Fixed returns a provider whose sources always yield v. Intended for tests.
func Fixed(v float64) Provider { return fixedProvider{v: constant(v)} }

type seededProvider struct {
	seed uint64
}

// Seeded returns a provider that derives an independent PCG stream for each
// key from seed.
func Seeded(seed uint64) Provider { return seededProvider{seed: seed} }

func (p seededProvider) For(key string) Source {
	//nolint:gosec // reproducible noise, not security sensitive
	return rand.New(rand.NewPCG(p.seed, xxhash.Sum64String(key)))
}

// FromConfig selects the provider for the configured variation policy.
// Without variation every source is neutral. With variation a zero seed is
// replaced by the current time so that numbers differ between runs.
func FromConfig(variation bool, seed uint64) Provider {
	if !variation {
		return Neutral()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return Seeded(seed)
}
