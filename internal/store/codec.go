package store

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressionOptions configures the blob codec.
type CompressionOptions struct {
	// Minimum size in bytes before compressing
	MinSize int
	// Compression level (1=fastest, 3=best)
	Level int
	// File extensions to skip compression for
	SkipExtensions []string
}

// DefaultCompressionOptions provides sensible defaults.
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		MinSize: 1024,
		Level:   2,
		SkipExtensions: []string{
			".zip", ".gz", ".zst", ".xz", ".bz2",
			".png", ".jpg", ".jpeg", ".gif", ".webp",
			".mp3", ".mp4", ".avi", ".mkv",
			".pdf", ".docx", ".xlsx",
		},
	}
}

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// blobCodec compresses blob values on the way into badger and transparently
// decompresses them on the way out. Stored bytes are sniffed by magic, so
// uncompressed blobs round-trip unchanged.
type blobCodec struct {
	opts CompressionOptions

	encoders sync.Pool
	decoders sync.Pool
}

func newBlobCodec(opts CompressionOptions) (*blobCodec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	enc.Close()

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	dec.Close()

	c := &blobCodec{
		opts: opts,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)),
					zstd.WithEncoderConcurrency(1),
				)
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil,
					zstd.WithDecoderConcurrency(1),
				)
				return dec
			},
		},
	}

	return c, nil
}

// shouldCompress decides by size and by the path the blob was stored under.
func (c *blobCodec) shouldCompress(path string, size int) bool {
	if size < c.opts.MinSize {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, skipExt := range c.opts.SkipExtensions {
		if ext == skipExt {
			return false
		}
	}

	return true
}

func (c *blobCodec) encode(path string, content []byte) []byte {
	if !c.shouldCompress(path, len(content)) {
		return content
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)

	return enc.EncodeAll(content, make([]byte, 0, len(content)/2))
}

func (c *blobCodec) decode(content []byte) ([]byte, error) {
	if len(content) < 4 || !bytes.Equal(content[:4], zstdMagic) {
		return content, nil
	}

	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)

	out, err := dec.DecodeAll(content, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing blob: %w", err)
	}
	return out, nil
}
