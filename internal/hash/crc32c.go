// Package hash provides the CRC32-Castagnoli checksums used for upload
// integrity validation. CRC32C is what the S3 API validates server-side,
// and the stdlib implementation is hardware accelerated on amd64 and arm64.
package hash

import (
	"hash"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32 for streaming use.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}
