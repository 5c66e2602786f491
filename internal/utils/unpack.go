package utils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UnzipBytes extracts a zip archive held in memory into dstFolder, preserving
// relative paths. Entries resolving outside dstFolder are rejected.
func UnzipBytes(data []byte, dstFolder string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, entry := range reader.File {
		if err := extractZipEntry(entry, dstFolder); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, dstFolder string) error {
	dstPath := filepath.Join(dstFolder, filepath.FromSlash(entry.Name))
	if !strings.HasPrefix(dstPath, filepath.Clean(dstFolder)+string(os.PathSeparator)) {
		return fmt.Errorf("zip entry %q escapes destination directory", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(dstPath, 0755); err != nil {
			return fmt.Errorf("create directory for zip entry: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create parent directory for zip entry: %w", err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %q: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create file for zip entry %q: %w", entry.Name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write zip entry %q: %w", entry.Name, err)
	}
	return nil
}
