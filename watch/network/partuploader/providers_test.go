package partuploader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFilePartProvider(t *testing.T) {
	content := []byte("0123456789abcdefghij") // 20 bytes
	path := filepath.Join(t.TempDir(), "save.zip")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}

	provider, err := NewFilePartProvider(path, 8)
	if err != nil {
		t.Fatalf("NewFilePartProvider: %v", err)
	}
	defer provider.Close() //nolint:errcheck

	if provider.NumParts() != 3 {
		t.Fatalf("Expected 3 parts, got %d", provider.NumParts())
	}

	wantSizes := []int64{8, 8, 4}
	var reassembled []byte
	for i := 0; i < provider.NumParts(); i++ {
		if got := provider.PartSize(i); got != wantSizes[i] {
			t.Errorf("PartSize(%d) = %d, want %d", i, got, wantSizes[i])
		}
		reader, err := provider.Part(i)
		if err != nil {
			t.Fatalf("Part(%d): %v", i, err)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("read part %d: %v", i, err)
		}
		reassembled = append(reassembled, data...)
	}

	if !bytes.Equal(reassembled, content) {
		t.Errorf("Reassembled parts don't match original content")
	}
}

func TestFilePartProvider_RereadSamePart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.zip")
	if err := os.WriteFile(path, []byte("retry-me"), 0600); err != nil {
		t.Fatal(err)
	}

	provider, err := NewFilePartProvider(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close() //nolint:errcheck

	for attempt := 0; attempt < 2; attempt++ {
		reader, err := provider.Part(0)
		if err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
		data, _ := io.ReadAll(reader)
		if string(data) != "retry-me" {
			t.Errorf("attempt %d: got %q", attempt, data)
		}
	}
}

func TestByteSlicePartProvider_OutOfRange(t *testing.T) {
	provider := NewByteSlicePartProvider([][]byte{[]byte("a")})

	if _, err := provider.Part(5); err == nil {
		t.Error("Expected error for out-of-range index")
	}
	if size := provider.PartSize(5); size != 0 {
		t.Errorf("Expected 0 size for out-of-range index, got %d", size)
	}
}
