package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "hello.txt", false},
		{"double dot inside", "report..final.pdf", false},
		{"empty", "", true},
		{"slash", "a/b.txt", true},
		{"backslash", `a\b.txt`, true},
		{"parent", "..", true},
		{"control char", "bad\x00name", true},
		{"too long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FileName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFolderID(t *testing.T) {
	assert.NoError(t, FolderID("root"))
	assert.NoError(t, FolderID("5f0c7c1e-0d7b-4f7e-9b43-2f1a1b0e9c11"))
	assert.Error(t, FolderID(""))
	assert.Error(t, FolderID("../etc"))
	assert.Error(t, FolderID(strings.Repeat("a", 129)))
}

func TestWalletAddress(t *testing.T) {
	assert.NoError(t, WalletAddress("0x00000000000000000000000000000000000000aB"))
	assert.Error(t, WalletAddress(""))
	assert.Error(t, WalletAddress("0xABC"))
	assert.Error(t, WalletAddress("00000000000000000000000000000000000000aB00"))
}

func TestFileSize(t *testing.T) {
	assert.NoError(t, FileSize(0, 10))
	assert.NoError(t, FileSize(10, 10))
	assert.NoError(t, FileSize(1<<40, 0))
	assert.Error(t, FileSize(-1, 10))
	assert.Error(t, FileSize(11, 10))
}

func TestContentType(t *testing.T) {
	assert.NoError(t, ContentType(""))
	assert.NoError(t, ContentType("text/plain; charset=utf-8"))
	assert.Error(t, ContentType("not a type;;"))
}
