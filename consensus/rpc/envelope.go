// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "github.com/hypermesh/trustchain/consensus"

// ClientMessage is the single wire envelope a client sends: exactly one
// of Validate or Status is non-nil, selected by Kind.
type ClientMessage struct {
	Kind     string         `json:"kind"`
	Validate *Request       `json:"validate,omitempty"`
	Status   *StatusRequest `json:"status,omitempty"`
}

const (
	kindValidate = "validate"
	kindStatus   = "status"
)

// NewValidateMessage wraps a validation Request for the wire.
func NewValidateMessage(req Request) ClientMessage {
	return ClientMessage{Kind: kindValidate, Validate: &req}
}

// NewStatusMessage wraps a StatusRequest for the wire.
func NewStatusMessage(requestID string) ClientMessage {
	return ClientMessage{Kind: kindStatus, Status: &StatusRequest{RequestID: requestID}}
}

// ServerMessage is the single wire envelope a server sends back: a full
// ValidationResult for a "validate" request, or a bare Outcome for a
// "status" query.
type ServerMessage struct {
	Result  *consensus.ValidationResult `json:"result,omitempty"`
	Outcome *consensus.Outcome          `json:"outcome,omitempty"`
}
