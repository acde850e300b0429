package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DeriveSeed maps a stage identity and a base seed to a stable seed.
// Fields are NUL-joined so ("a:b", "c") and ("a", "b:c") never collide.
func DeriveSeed(stage, module string, base int64) uint64 {
	canon := strings.Join([]string{stage, module, strconv.FormatInt(base, 10)}, "\x00")
	sum := sha256.Sum256([]byte(canon))
	return binary.LittleEndian.Uint64(sum[:8])
}

// seedFromParam accepts the numeric shapes yaml and callers produce.
func seedFromParam(v any) (uint64, error) {
	switch s := v.(type) {
	case uint64:
		return s, nil
	case int:
		return uint64(s), nil
	case int64:
		return uint64(s), nil
	case uint:
		return uint64(s), nil
	case float64:
		if s != float64(int64(s)) {
			return 0, fmt.Errorf("rng_seed %v is not an integer", s)
		}
		return uint64(int64(s)), nil
	case string:
		return strconv.ParseUint(s, 10, 64)
	default:
		return 0, fmt.Errorf("rng_seed has unsupported type %T", v)
	}
}
