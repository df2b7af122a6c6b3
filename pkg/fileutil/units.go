package fileutil

import "github.com/dustin/go-humanize"

// Binary byte multiples.
const (
	KiB int64 = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
)

// Kilobytes returns n KiB in bytes.
func Kilobytes(n int64) int64 { return n * KiB }

// Megabytes returns n MiB in bytes.
func Megabytes(n int64) int64 { return n * MiB }

// Gigabytes returns n GiB in bytes.
func Gigabytes(n int64) int64 { return n * GiB }

// Terabytes returns n TiB in bytes.
func Terabytes(n int64) int64 { return n * TiB }

// HumanSize formats a byte count with binary units, e.g. "1.5 MiB".
// Negative sizes format as zero.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
