package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/promptlab/semdex/document"
)

// keyVectorPrefix is the number of leading vector components that enter the
// cache key. Together with the vector length it distinguishes real-world
// queries without hashing the full vector.
const keyVectorPrefix = 16

// cacheKey builds the canonical serialization of a query. Identical queries
// yield identical keys; float components are keyed by their exact bit
// patterns.
func cacheKey(vec []float32, text string, filter *document.Filter, limit int, threshold float64) string {
	var b strings.Builder

	b.WriteString("v=")
	b.WriteString(strconv.Itoa(len(vec)))
	b.WriteByte(':')

	n := len(vec)
	if n > keyVectorPrefix {
		n = keyVectorPrefix
	}

	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(math.Float32bits(vec[i])), 16))
	}

	b.WriteString(";t=")
	b.WriteString(text)

	b.WriteString(";f=")
	if filter != nil {
		b.WriteString(filter.Key())
	}

	b.WriteString(";l=")
	b.WriteString(strconv.Itoa(limit))

	b.WriteString(";s=")
	b.WriteString(strconv.FormatUint(math.Float64bits(threshold), 16))

	return b.String()
}
