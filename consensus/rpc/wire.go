// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"encoding/binary"
	"encoding/json"
	"io"
)

// MaxMessageBytes bounds a single JSON message, guarding against a
// corrupt length prefix exhausting memory — the same discipline as
// ifr's frame protocol, applied here to this interface's own framing.
const MaxMessageBytes = 4 << 20

// writeJSON marshals v and writes it as [u32 length][json bytes].
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// readJSON reads one length-prefixed JSON message from r into v.
func readJSON(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length == 0 || length > MaxMessageBytes {
		return errMalformedLength
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

type wireError string

func (e wireError) Error() string { return string(e) }

const errMalformedLength = wireError("rpc: malformed message length")
