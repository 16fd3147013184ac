package validator

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
)

const (
	maxFileNameLen    = 255
	maxFolderIDLen    = 128
	maxContentTypeLen = 255
	asciiControlStart = 32
	asciiDelete       = 127

	errFileNameEmptyFmt          = "file name cannot be empty"
	errFileNameMaxLengthFmt      = "file name must not exceed %d characters"
	errFileNamePathSepFmt        = "file name cannot contain path separators"
	errFileNameControlCharsFmt   = "file name cannot contain control characters"
	errFolderNameEmptyFmt        = "folder name cannot be empty"
	errFolderNameMaxLengthFmt    = "folder name must not exceed %d characters"
	errFolderNamePathSepFmt      = "folder name cannot contain path separators"
	errFolderNameControlCharsFmt = "folder name cannot contain control characters"
	errFolderIDMaxLengthFmt      = "folder id must not exceed %d characters"
	errFolderIDInvalidFmt        = "folder id contains invalid characters"
	errContentTypeMaxLengthFmt   = "content type must not exceed %d characters"
	errContentTypeInvalidFmt     = "invalid content type"
	errFileSizeNegativeFmt       = "file size cannot be negative"
	errFileSizeMaxFmt            = "file size exceeds maximum of %d bytes"
	errAddressEmptyFmt           = "wallet address cannot be empty"
	errAddressInvalidFmt         = "invalid wallet address"
)

var (
	addressRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	folderIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func FileName(name string) error {
	if name == "" {
		return fmt.Errorf(errFileNameEmptyFmt)
	}

	if len(name) > maxFileNameLen {
		return fmt.Errorf(errFileNameMaxLengthFmt, maxFileNameLen)
	}

	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf(errFileNamePathSepFmt)
	}

	if hasControlChars(name) {
		return fmt.Errorf(errFileNameControlCharsFmt)
	}

	return nil
}

func FolderName(name string) error {
	if name == "" {
		return fmt.Errorf(errFolderNameEmptyFmt)
	}

	if len(name) > maxFileNameLen {
		return fmt.Errorf(errFolderNameMaxLengthFmt, maxFileNameLen)
	}

	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf(errFolderNamePathSepFmt)
	}

	if hasControlChars(name) {
		return fmt.Errorf(errFolderNameControlCharsFmt)
	}

	return nil
}

// FolderID accepts the root sentinel and generated folder ids.
func FolderID(id string) error {
	if len(id) > maxFolderIDLen {
		return fmt.Errorf(errFolderIDMaxLengthFmt, maxFolderIDLen)
	}

	if !folderIDRegex.MatchString(id) {
		return fmt.Errorf(errFolderIDInvalidFmt)
	}

	return nil
}

func FileSize(size, max int64) error {
	if size < 0 {
		return fmt.Errorf(errFileSizeNegativeFmt)
	}

	if max > 0 && size > max {
		return fmt.Errorf(errFileSizeMaxFmt, max)
	}

	return nil
}

func ContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	if len(contentType) > maxContentTypeLen {
		return fmt.Errorf(errContentTypeMaxLengthFmt, maxContentTypeLen)
	}

	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		return fmt.Errorf(errContentTypeInvalidFmt)
	}

	return nil
}

func WalletAddress(address string) error {
	if address == "" {
		return fmt.Errorf(errAddressEmptyFmt)
	}

	if !addressRegex.MatchString(address) {
		return fmt.Errorf(errAddressInvalidFmt)
	}

	return nil
}

func hasControlChars(s string) bool {
	for _, char := range s {
		if char < asciiControlStart || char == asciiDelete {
			return true
		}
	}
	return false
}
