// Package scanner finds image files under the watched directories and
// reads their capture time.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/spf13/afero"
)

// exifTimeLayout is the EXIF DateTime format. It carries no zone; values are
// read as UTC.
const exifTimeLayout = "2006:01:02 15:04:05"

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {},
}

// Found is one image file on disk.
type Found struct {
	Path    string
	ModTime time.Time
}

type Scanner struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Scanner {
	return &Scanner{fs: fs}
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Scan walks roots and returns the images found, sorted by path. Missing
// roots are an error; unreadable entries below a root are skipped.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]Found, error) {
	var out []Found

	for _, root := range roots {
		if _, err := s.fs.Stat(root); err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}

		err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() || !IsImage(path) {
				return nil
			}
			out = append(out, Found{Path: path, ModTime: info.ModTime().UTC()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// CaptureTime returns the EXIF DateTimeOriginal of data, or fallback when
// data has no usable EXIF date.
func CaptureTime(data []byte, fallback time.Time) time.Time {
	t, err := exifDateTimeOriginal(data)
	if err != nil {
		return fallback
	}
	return t
}

var errNoDate = errors.New("no DateTimeOriginal")

func exifDateTimeOriginal(data []byte) (time.Time, error) {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return time.Time{}, err
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return time.Time{}, err
	}

	for _, tag := range tags {
		if tag.TagName != "DateTimeOriginal" {
			continue
		}
		v, ok := tag.Value.(string)
		if !ok {
			v = tag.Formatted
		}
		return parseExifTime(v)
	}
	return time.Time{}, errNoDate
}

func parseExifTime(v string) (time.Time, error) {
	v = strings.TrimRight(strings.TrimSpace(v), "\x00")
	return time.ParseInLocation(exifTimeLayout, v, time.UTC)
}
