// Package thumbnails derives the preview variants uploaded next to each
// original and caches them in memory and on disk.
package thumbnails

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/photovault/internal/filex"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/afero"
)

const (
	VariantSmallCover = "small-cover"
	VariantBigContain = "big-contain"

	ContentType = "image/jpeg"
	jpegQuality = 85
	dirName     = "thumbnails"
)

// Spec describes how one variant is derived from the original.
type Spec struct {
	Name   string
	Width  int
	Height int
	// Cover crops to fill the box; otherwise the image fits inside it.
	Cover bool
}

// DefaultSpecs are the variants produced for every file.
var DefaultSpecs = []Spec{
	{Name: VariantSmallCover, Width: 256, Height: 256, Cover: true},
	{Name: VariantBigContain, Width: 1920, Height: 1920},
}

// Variant is one derived plaintext image.
type Variant struct {
	Name        string
	ContentType string
	Data        []byte
}

type Generator interface {
	// Variants returns every configured variant of original, generating
	// missing ones on demand.
	Variants(ctx context.Context, id uuid.UUID, original []byte) ([]Variant, error)
}

type cacheKey struct {
	id   uuid.UUID
	name string
}

type ImagingGenerator struct {
	fs    afero.Fs
	dir   string
	specs []Spec
	cache *ttlcache.Cache[cacheKey, []byte]
}

// NewImagingGenerator keeps generated variants under dataDir/thumbnails on fs
// and the most recent ones in memory for ttl.
func NewImagingGenerator(fs afero.Fs, dataDir string, ttl time.Duration, capacity uint64) *ImagingGenerator {
	return &ImagingGenerator{
		fs:    fs,
		dir:   filepath.Join(dataDir, dirName),
		specs: DefaultSpecs,
		cache: ttlcache.New[cacheKey, []byte](
			ttlcache.WithTTL[cacheKey, []byte](ttl),
			ttlcache.WithCapacity[cacheKey, []byte](capacity),
		),
	}
}

func (g *ImagingGenerator) path(id uuid.UUID, name string) string {
	return filepath.Join(g.dir, id.String(), name+".jpg")
}

func (g *ImagingGenerator) Variants(ctx context.Context, id uuid.UUID, original []byte) ([]Variant, error) {
	out := make([]Variant, 0, len(g.specs))
	var missing []Spec

	for _, s := range g.specs {
		if data, ok := g.cached(id, s.Name); ok {
			out = append(out, Variant{Name: s.Name, ContentType: ContentType, Data: data})
			continue
		}
		missing = append(missing, s)
	}
	if len(missing) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(original), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}

	if _, err := filex.EnsureDir(g.fs, filepath.Join(g.dir, id.String())); err != nil {
		return nil, err
	}

	for _, s := range missing {
		resized := imaging.Fit(img, s.Width, s.Height, imaging.Lanczos)
		if s.Cover {
			resized = imaging.Fill(img, s.Width, s.Height, imaging.Center, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", id, s.Name, err)
		}
		data := buf.Bytes()

		if err := filex.WriteFileAtomic(g.fs, g.path(id, s.Name), data, 0o600); err != nil {
			return nil, err
		}
		g.cache.Set(cacheKey{id, s.Name}, data, ttlcache.DefaultTTL)
		out = append(out, Variant{Name: s.Name, ContentType: ContentType, Data: data})
	}
	return out, nil
}

// cached looks in memory first, then on disk.
func (g *ImagingGenerator) cached(id uuid.UUID, name string) ([]byte, bool) {
	key := cacheKey{id, name}
	if item := g.cache.Get(key); item != nil {
		return item.Value(), true
	}

	data, err := afero.ReadFile(g.fs, g.path(id, name))
	if err != nil {
		return nil, false
	}
	g.cache.Set(key, data, ttlcache.DefaultTTL)
	return data, true
}
