package chunker

import (
	"math"
	"strconv"
	"strings"
)

// Chunk size bounds in characters of formatted output.
const (
	DefaultChunkSize = 5000
	MinChunkSize     = 1000
	MaxChunkSize     = 20000
)

// coerceSize turns a persisted chunk-size value into an int. Settings travel
// through JSON, so the value may arrive as a float, a numeric string, nil,
// or garbage. Returns DefaultChunkSize when the value is absent or unusable.
func coerceSize(value any) int {
	switch v := value.(type) {
	case nil:
		return DefaultChunkSize
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return coerceFloat(float64(v))
	case float64:
		return coerceFloat(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return DefaultChunkSize
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return DefaultChunkSize
		}
		return coerceFloat(f)
	default:
		return DefaultChunkSize
	}
}

func coerceFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultChunkSize
	}
	return int(math.Floor(f))
}

// ResolveTaskChunkSize resolves a user-configured chunk size to the range
// used for interactive translation tasks, clamping to [MinChunkSize,
// MaxChunkSize].
func ResolveTaskChunkSize(value any) int {
	size := coerceSize(value)
	if size < MinChunkSize {
		return MinChunkSize
	}
	if size > MaxChunkSize {
		return MaxChunkSize
	}
	return size
}

// ResolveRuntimeTaskChunkSize resolves a chunk size for background runtime
// tasks, which tolerate smaller chunks but never zero or negative sizes.
// Clamps to [1, MaxChunkSize].
func ResolveRuntimeTaskChunkSize(value any) int {
	size := coerceSize(value)
	if size < 1 {
		return 1
	}
	if size > MaxChunkSize {
		return MaxChunkSize
	}
	return size
}
