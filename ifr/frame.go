// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ifr

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hypermesh/trustchain/flowtable"
)

// Opcode identifies an IPC frame's operation, per §6.1.
type Opcode byte

const (
	OpInsert Opcode = 0x01
	OpLookup Opcode = 0x02
	OpRemove Opcode = 0x03
	OpStats  Opcode = 0x04
	OpReply  Opcode = 0x81
	OpError  Opcode = 0xFF
)

// MaxFrameLength bounds a single frame's payload to guard against a
// malformed length prefix exhausting memory.
const MaxFrameLength = 1 << 20

// Frame is a single length-prefixed IPC message:
// [u32 length][u8 opcode][payload].
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// WriteFrame writes f to w as [length][opcode][payload]. length counts the
// opcode byte plus the payload.
func WriteFrame(w io.Writer, f Frame) error {
	length := uint32(1 + len(f.Payload))
	header := make([]byte, 5)
	binary.BigEndian.PutUint32(header[0:4], length)
	header[4] = byte(f.Opcode)
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads one Frame from r. A malformed length (zero, or over
// MaxFrameLength) is reported as an error; the caller must close the
// connection on any error from ReadFrame, per §4.3's failure semantics.
func ReadFrame(r io.Reader) (Frame, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(header[0:4])
	if length == 0 {
		return Frame{}, fmt.Errorf("ifr: zero-length frame")
	}
	if length > MaxFrameLength {
		return Frame{}, fmt.Errorf("ifr: frame length %d exceeds max %d", length, MaxFrameLength)
	}
	opcode := Opcode(header[4])
	payload := make([]byte, length-1)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Opcode: opcode, Payload: payload}, nil
}

// encodeFlowKey / decodeFlowKey marshal the fixed 32-byte Lookup/Remove
// payload.
func encodeFlowKey(k flowtable.FlowKey) []byte {
	out := make([]byte, 32)
	copy(out, k[:])
	return out
}

func decodeFlowKey(b []byte) (flowtable.FlowKey, error) {
	if len(b) != 32 {
		return flowtable.FlowKey{}, fmt.Errorf("ifr: flow key payload must be 32 bytes, got %d", len(b))
	}
	var k flowtable.FlowKey
	copy(k[:], b)
	return k, nil
}

// encodeFlowRecord / decodeFlowRecord marshal a FlowRecord as
// [32 key][4 component_id BE][8 timestamp_ns BE][8 metadata].
func encodeFlowRecord(r flowtable.FlowRecord) []byte {
	out := make([]byte, 0, 52)
	out = append(out, r.Key[:]...)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], r.ComponentID)
	out = append(out, cb[:]...)
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], r.TimestampNs)
	out = append(out, tb[:]...)
	out = append(out, r.Metadata[:]...)
	return out
}

func decodeFlowRecord(b []byte) (flowtable.FlowRecord, error) {
	if len(b) != 52 {
		return flowtable.FlowRecord{}, fmt.Errorf("ifr: flow record payload must be 52 bytes, got %d", len(b))
	}
	var r flowtable.FlowRecord
	copy(r.Key[:], b[0:32])
	r.ComponentID = binary.BigEndian.Uint32(b[32:36])
	r.TimestampNs = binary.BigEndian.Uint64(b[36:44])
	copy(r.Metadata[:], b[44:52])
	return r, nil
}

// encodeLookupReply encodes either `present(record)` (1 + 52 bytes) or
// `absent` (1 byte).
func encodeLookupReply(rec flowtable.FlowRecord, present bool) []byte {
	if !present {
		return []byte{0x00}
	}
	out := make([]byte, 0, 53)
	out = append(out, 0x01)
	out = append(out, encodeFlowRecord(rec)...)
	return out
}

func decodeLookupReply(b []byte) (flowtable.FlowRecord, bool, error) {
	if len(b) == 0 {
		return flowtable.FlowRecord{}, false, fmt.Errorf("ifr: empty lookup reply")
	}
	if b[0] == 0x00 {
		return flowtable.FlowRecord{}, false, nil
	}
	rec, err := decodeFlowRecord(b[1:])
	if err != nil {
		return flowtable.FlowRecord{}, false, err
	}
	return rec, true, nil
}

// encodeStatsReply encodes a Stats snapshot as 6 BE uint64 fields.
func encodeStatsReply(s Stats) []byte {
	out := make([]byte, 48)
	binary.BigEndian.PutUint64(out[0:8], s.HitL1)
	binary.BigEndian.PutUint64(out[8:16], s.BloomNegative)
	binary.BigEndian.PutUint64(out[16:24], s.HitTable)
	binary.BigEndian.PutUint64(out[24:32], s.Misses)
	binary.BigEndian.PutUint64(out[32:40], s.Inserts)
	binary.BigEndian.PutUint64(out[40:48], s.InsertFailures)
	return out
}

func decodeStatsReply(b []byte) (Stats, error) {
	if len(b) != 48 {
		return Stats{}, fmt.Errorf("ifr: stats payload must be 48 bytes, got %d", len(b))
	}
	return Stats{
		HitL1:          binary.BigEndian.Uint64(b[0:8]),
		BloomNegative:  binary.BigEndian.Uint64(b[8:16]),
		HitTable:       binary.BigEndian.Uint64(b[16:24]),
		Misses:         binary.BigEndian.Uint64(b[24:32]),
		Inserts:        binary.BigEndian.Uint64(b[32:40]),
		InsertFailures: binary.BigEndian.Uint64(b[40:48]),
	}, nil
}
