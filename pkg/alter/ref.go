package alter

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// MaxIncrement is the largest increment Next accepts. The increment is a
// single digit.
const MaxIncrement = 9

// RefGenerator produces new alter refs from a clock.
//
// A ref is the number of tenths of a second since the Unix epoch followed by
// a single increment digit, which keeps refs generated within the same tick
// ordered.
type RefGenerator struct {
	now func() time.Time
}

// NewRefGenerator returns a generator using now as its clock. A nil now uses
// time.Now.
func NewRefGenerator(now func() time.Time) *RefGenerator {
	if now == nil {
		now = time.Now
	}

	return &RefGenerator{now: now}
}

// Next returns the ref for the current tick with the given increment, which
// must be between 0 and MaxIncrement.
func (g *RefGenerator) Next(inc int) (string, error) {
	if inc < 0 || inc > MaxIncrement {
		return "", &ConfigError{Msg: fmt.Sprintf("ref increment must be between 0 and %d, got %d", MaxIncrement, inc)}
	}

	return strconv.FormatInt(g.tick()*10+int64(inc), 10), nil
}

// Sequence returns n increasing refs starting at the current tick. More than
// MaxIncrement+1 refs carry into the following ticks, so the last ref may be
// up to n/10 tenths of a second in the future.
func (g *RefGenerator) Sequence(n int) []string {
	base := g.tick() * 10
	refs := make([]string, n)
	for i := range refs {
		refs[i] = strconv.FormatInt(base+int64(i), 10)
	}

	return refs
}

func (g *RefGenerator) tick() int64 {
	return int64(math.Round(float64(g.now().UnixMilli()) / 100))
}

// GenRef returns a ref for the current time.
func GenRef(inc int) (string, error) {
	return NewRefGenerator(nil).Next(inc)
}
