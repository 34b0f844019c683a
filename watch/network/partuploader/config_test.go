package partuploader

import (
	"testing"

	"github.com/docker/go-units"
)

func TestParallelismForSize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want int
	}{
		{name: "tiny file", size: 10 * units.MiB, want: 6},
		{name: "exactly 1 GiB", size: 1 * units.GiB, want: 6},
		{name: "just above 1 GiB", size: 1*units.GiB + 1, want: 5},
		{name: "8 GiB", size: 8 * units.GiB, want: 5},
		{name: "20 GiB", size: 20 * units.GiB, want: 4},
		{name: "60 GiB", size: 60 * units.GiB, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParallelismForSize(tt.size); got != tt.want {
				t.Errorf("ParallelismForSize(%d) = %d, want %d", tt.size, got, tt.want)
			}
		})
	}
}

func TestNumParts(t *testing.T) {
	tests := []struct {
		name     string
		fileSize int64
		partSize int64
		want     int
	}{
		{name: "exact multiple", fileSize: 12 * units.MiB, partSize: 4 * units.MiB, want: 3},
		{name: "with remainder", fileSize: 10, partSize: 3, want: 4},
		{name: "single part", fileSize: 5, partSize: 100, want: 1},
		{name: "empty file", fileSize: 0, partSize: 100, want: 0},
		{name: "invalid part size", fileSize: 100, partSize: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumParts(tt.fileSize, tt.partSize); got != tt.want {
				t.Errorf("NumParts(%d, %d) = %d, want %d", tt.fileSize, tt.partSize, got, tt.want)
			}
		})
	}
}

// The ranges of parts 1..NumParts must tile [0, fileSize) with no gap or overlap.
func TestPartRange_TilesFileExactly(t *testing.T) {
	cases := []struct {
		fileSize int64
		partSize int64
	}{
		{fileSize: 12 * units.MiB, partSize: 4 * units.MiB},
		{fileSize: 10, partSize: 3},
		{fileSize: 1, partSize: 1},
		{fileSize: 999, partSize: 250},
		{fileSize: 5 * units.GiB, partSize: 95 * units.MiB},
	}

	for _, c := range cases {
		numParts := NumParts(c.fileSize, c.partSize)
		var cursor int64
		for n := 1; n <= numParts; n++ {
			offset, length := PartRange(n, c.partSize, c.fileSize)
			if offset != cursor {
				t.Fatalf("fileSize=%d partSize=%d: part %d starts at %d, expected %d",
					c.fileSize, c.partSize, n, offset, cursor)
			}
			if length <= 0 {
				t.Fatalf("fileSize=%d partSize=%d: part %d has non-positive length %d",
					c.fileSize, c.partSize, n, length)
			}
			cursor = offset + length
		}
		if cursor != c.fileSize {
			t.Fatalf("fileSize=%d partSize=%d: parts cover [0, %d), expected [0, %d)",
				c.fileSize, c.partSize, cursor, c.fileSize)
		}
	}
}
