package util

// Data sizes in bytes.
const (
	B   = 1
	KiB = 1024 * B
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = int64(1024) * GiB
)

// UnitNames returns the short unit names in ascending order, matching
// B, KiB, MiB, GiB and TiB.
func UnitNames() []string {
	return []string{"B", "kB", "MB", "GB", "TB"}
}
