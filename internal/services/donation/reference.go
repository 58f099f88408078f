package donation

import (
	"fmt"
	"math/rand/v2"

	"github.com/kevin07696/etaca-service/pkg/timeutil"
)

const (
	referencePrefix    = "DON"
	referenceRandomMin = 10000
	referenceRandomMax = 99999
)

// ReferenceGenerator produces gateway order ids of the form
// DON-{unixSeconds}-{10000..99999}. Uniqueness is enforced by the database,
// not by the generator.
type ReferenceGenerator struct {
	now  timeutil.Clock
	intN func(n int) int
}

// NewReferenceGenerator uses the wall clock and the shared random source
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		now:  timeutil.Now,
		intN: rand.IntN,
	}
}

// NewReferenceGeneratorWith injects the clock and random source
func NewReferenceGeneratorWith(now timeutil.Clock, intN func(n int) int) *ReferenceGenerator {
	return &ReferenceGenerator{now: now, intN: intN}
}

// Next returns a fresh reference
func (g *ReferenceGenerator) Next() string {
	suffix := referenceRandomMin + g.intN(referenceRandomMax-referenceRandomMin+1)
	return fmt.Sprintf("%s-%d-%d", referencePrefix, g.now().Unix(), suffix)
}
