package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHash returns the hex md5 of data. Drive reports md5Checksum for
// binary files, so using the same digest lets a cached entry be compared
// with remote metadata without downloading.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
