// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package chunker

import (
	"encoding/binary"
	"fmt"
)

// OpCode identifies one operation in the binary diff micro-format.
type OpCode byte

const (
	// OpCopy copies Length bytes from the old version starting at the
	// accumulator's current offset.
	OpCopy OpCode = 0x01
	// OpAdd emits Length literal bytes from Data.
	OpAdd OpCode = 0x02
	// OpReplace discards the accumulator so far and uses Data verbatim.
	OpReplace OpCode = 0x03
)

// DiffOp is one operation of a Diff.
type DiffOp struct {
	Code   OpCode
	Length uint32
	Data   []byte
}

// Diff is an ordered sequence of DiffOps describing how to derive a new
// version from an old one.
type Diff struct {
	Ops []DiffOp
}

// similarityThreshold below which Compute prefers a full REPLACE over
// an ADD-style delta.
const similarityThreshold = 0.5

// similarity is a Hamming-like ratio of matching bytes over the common
// prefix length of old and next.
func similarity(old, next []byte) float64 {
	n := len(old)
	if len(next) < n {
		n = len(next)
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if old[i] == next[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// Compute builds a Diff deriving next from old. When the common prefix is
// similar enough (per the Hamming-like heuristic), it emits a COPY of the
// matching prefix followed by an ADD of the remaining suffix; otherwise it
// emits a single REPLACE with the full new content.
func Compute(old, next []byte) *Diff {
	if similarity(old, next) < similarityThreshold {
		return &Diff{Ops: []DiffOp{{Code: OpReplace, Length: uint32(len(next)), Data: append([]byte(nil), next...)}}}
	}

	n := len(old)
	if len(next) < n {
		n = len(next)
	}
	prefix := 0
	for prefix < n && old[prefix] == next[prefix] {
		prefix++
	}

	var ops []DiffOp
	if prefix > 0 {
		ops = append(ops, DiffOp{Code: OpCopy, Length: uint32(prefix)})
	}
	if prefix < len(next) {
		suffix := next[prefix:]
		ops = append(ops, DiffOp{Code: OpAdd, Length: uint32(len(suffix)), Data: append([]byte(nil), suffix...)})
	}
	if len(ops) == 0 {
		// Only an empty next leaves ops empty (a non-empty match always
		// emits a COPY above); emit an explicit COPY of length 0 so Apply
		// has at least one op to run (no-op).
		ops = append(ops, DiffOp{Code: OpCopy, Length: uint32(len(next))})
	}
	return &Diff{Ops: ops}
}

// Apply reconstructs the new version from old and d.
func Apply(old []byte, d *Diff) ([]byte, error) {
	var out []byte
	offset := 0
	for _, op := range d.Ops {
		switch op.Code {
		case OpCopy:
			if offset+int(op.Length) > len(old) {
				return nil, fmt.Errorf("chunker: COPY out of range: offset %d length %d old-len %d", offset, op.Length, len(old))
			}
			out = append(out, old[offset:offset+int(op.Length)]...)
			offset += int(op.Length)
		case OpAdd:
			if uint32(len(op.Data)) != op.Length {
				return nil, fmt.Errorf("chunker: ADD length mismatch")
			}
			out = append(out, op.Data...)
		case OpReplace:
			if uint32(len(op.Data)) != op.Length {
				return nil, fmt.Errorf("chunker: REPLACE length mismatch")
			}
			out = append([]byte(nil), op.Data...)
		default:
			return nil, fmt.Errorf("chunker: unknown diff opcode %d", op.Code)
		}
	}
	return out, nil
}

// Encode serializes a Diff to a compact binary form:
// repeated [opcode:1][length:4 BE][data if ADD/REPLACE].
func Encode(d *Diff) []byte {
	var out []byte
	var lenBuf [4]byte
	for _, op := range d.Ops {
		out = append(out, byte(op.Code))
		binary.BigEndian.PutUint32(lenBuf[:], op.Length)
		out = append(out, lenBuf[:]...)
		if op.Code == OpAdd || op.Code == OpReplace {
			out = append(out, op.Data...)
		}
	}
	return out
}

// Decode parses the binary form produced by Encode.
func Decode(buf []byte) (*Diff, error) {
	var d Diff
	for len(buf) > 0 {
		if len(buf) < 5 {
			return nil, fmt.Errorf("chunker: truncated diff op header")
		}
		code := OpCode(buf[0])
		length := binary.BigEndian.Uint32(buf[1:5])
		buf = buf[5:]
		op := DiffOp{Code: code, Length: length}
		switch code {
		case OpAdd, OpReplace:
			if uint32(len(buf)) < length {
				return nil, fmt.Errorf("chunker: truncated diff op data")
			}
			op.Data = append([]byte(nil), buf[:length]...)
			buf = buf[length:]
		case OpCopy:
			// no payload
		default:
			return nil, fmt.Errorf("chunker: unknown diff opcode %d", code)
		}
		d.Ops = append(d.Ops, op)
	}
	return &d, nil
}
