package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gosimple/unidecode"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9 ._-]+`)

// Sanitize turns a free form label (a category name, a file stem) into a safe path segment.
func Sanitize(name string) string {
	name = unidecode.Unidecode(name)
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(strings.Join(strings.Fields(name), " "), " .-")
	if name == "" {
		return "untitled"
	}
	return name
}

// UniquePath returns path, or path with a timestamp suffix before the extension when path is taken.
func UniquePath(path string, now time.Time) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := fmt.Sprintf("%s_%s%s", base, now.Format("20060102-150405"), ext)
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%s-%d%s", base, now.Format("20060102-150405"), i, ext)
	}
}

// MoveFile moves src into dir, keeping its name unless already taken, and returns the new path.
func MoveFile(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	dst := UniquePath(filepath.Join(dir, filepath.Base(src)), time.Now())

	err := os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}
	if !isCrossDeviceError(err) {
		return "", fmt.Errorf("failed to move file: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	// Remove the original file after successful copy
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("failed to remove original file after copy: %w", err)
	}
	return dst, nil
}

// isCrossDeviceError checks if an error is due to cross-device link (moving across filesystems)
func isCrossDeviceError(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()
	_, err = io.Copy(destination, source)
	return err
}
