//go:build !linux && !darwin && !freebsd

package storage

import "math"

func FreeSpace(path string) (uint64, error) {
	return math.MaxUint64, nil
}
