package gen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces document ids for the stores.
type IDGenerator func() string

func UUID() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewRandom()).String()
	}
}

// Sequence returns deterministic ids ("<prefix>-1", "<prefix>-2", ...).
func Sequence(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}

func (g IDGenerator) Next() string {
	if g == nil {
		return uuid.Nil.String()
	}

	return g()
}
