// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chunker splits byte blobs into fixed-size, compressed,
// hash-verified chunks for content-addressed distribution, and
// reassembles them back. Gzip uses the standard library; Zstd and Lz4 are
// both served by github.com/klauspost/compress, the one third-party
// compression dependency exercised throughout the pack's storage engines,
// rather than introducing an unrelated codec for Lz4 alone (see
// DESIGN.md).
package chunker

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Algorithm identifies a chunk's compression codec.
type Algorithm uint8

const (
	None Algorithm = iota
	Gzip
	Zstd
	Lz4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Lz4:
		return "lz4"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Chunk is one window of a chunked blob.
type Chunk struct {
	Index             uint32
	Data              []byte // compressed bytes
	Hash              [32]byte
	UncompressedSize  uint32
	Compression       Algorithm
}

// Config controls chunking behavior.
type Config struct {
	ChunkSize   int
	Compression Algorithm
}

// DefaultConfig chunks in 64 KiB windows with no compression.
func DefaultConfig() Config {
	return Config{ChunkSize: 64 * 1024, Compression: None}
}

func compress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case Lz4:
		return s2.Encode(nil, data), nil
	default:
		return nil, fmt.Errorf("chunker: unknown compression algorithm %d", algo)
	}
}

func decompress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case Lz4:
		return s2.Decode(nil, data)
	default:
		return nil, fmt.Errorf("chunker: unknown compression algorithm %d", algo)
	}
}

// ChunkData splits data into cfg.ChunkSize windows, compresses each under
// cfg.Compression, and attaches a hash of the uncompressed window.
func ChunkData(data []byte, cfg Config) ([]Chunk, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive")
	}
	if len(data) == 0 {
		return []Chunk{}, nil
	}

	var chunks []Chunk
	for i, off := 0, 0; off < len(data); i, off = i+1, off+cfg.ChunkSize {
		end := off + cfg.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		window := data[off:end]
		hash := sha256.Sum256(window)
		compressed, err := compress(cfg.Compression, window)
		if err != nil {
			return nil, fmt.Errorf("chunker: compress chunk %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{
			Index:            uint32(i),
			Data:             compressed,
			Hash:             hash,
			UncompressedSize: uint32(len(window)),
			Compression:      cfg.Compression,
		})
	}
	return chunks, nil
}

// Reassemble sorts chunks by index, verifies indices form 0..N with no
// gaps or duplicates, decompresses each per its recorded algorithm,
// verifies the uncompressed hash, and concatenates.
func Reassemble(chunks []Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i, c := range sorted {
		if int(c.Index) != i {
			if i > 0 && c.Index == sorted[i-1].Index {
				return nil, fmt.Errorf("chunker: duplicate chunk index %d", c.Index)
			}
			return nil, fmt.Errorf("chunker: missing chunk index %d", i)
		}
	}

	var out bytes.Buffer
	for _, c := range sorted {
		plain, err := decompress(c.Compression, c.Data)
		if err != nil {
			return nil, fmt.Errorf("chunker: decompress chunk %d: %w", c.Index, err)
		}
		if sha256.Sum256(plain) != c.Hash {
			return nil, fmt.Errorf("chunker: chunk %d failed hash verification", c.Index)
		}
		out.Write(plain)
	}
	return out.Bytes(), nil
}
