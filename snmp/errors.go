// Copyright 2025 Neteye
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package snmp

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	ErrTimeout        = errors.New("snmp: operation timed out")
	ErrInvalidOID     = errors.New("snmp: invalid OID")
	ErrInvalidValue   = errors.New("snmp: invalid value")
	ErrPacketTooLarge = errors.New("snmp: packet too large")
	ErrNoResponse     = errors.New("snmp: no response received")
)

// DecodeErrorKind classifies a rejected frame.
type DecodeErrorKind int

const (
	// DecodeMalformed is a structurally invalid BER frame.
	DecodeMalformed DecodeErrorKind = iota
	// DecodeTruncated is a frame whose declared lengths run past the payload.
	DecodeTruncated
	// DecodeUnsupportedVersion is a frame with a version field outside {0, 1, 3}.
	DecodeUnsupportedVersion
)

// String returns the taxonomy label for the kind.
func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeMalformed:
		return "malformed"
	case DecodeTruncated:
		return "truncated"
	case DecodeUnsupportedVersion:
		return "unsupported_version"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// DecodeError reports why a frame was rejected and where.
type DecodeError struct {
	Kind    DecodeErrorKind
	Message string
	Offset  int
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("snmp: %s frame at offset %d: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("snmp: %s frame: %s", e.Kind, e.Message)
}

func newDecodeError(kind DecodeErrorKind, offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}

// DecodeKind extracts the classification of a decode error, if it is one.
func DecodeKind(err error) (DecodeErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// SNMPError represents a non-zero error-status in a response PDU.
type SNMPError struct {
	Status     ErrorStatus
	Index      int
	RequestOID OID
}

// Error implements the error interface.
func (e *SNMPError) Error() string {
	if e.RequestOID != nil {
		return fmt.Sprintf("snmp: %s at index %d (OID: %s)", e.Status, e.Index, e.RequestOID)
	}
	return fmt.Sprintf("snmp: %s at index %d", e.Status, e.Index)
}

// NewSNMPError creates a new SNMP error.
func NewSNMPError(status ErrorStatus, index int, oid OID) *SNMPError {
	return &SNMPError{
		Status:     status,
		Index:      index,
		RequestOID: oid,
	}
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsSNMPError returns the protocol error carried by err, if any.
func IsSNMPError(err error) (*SNMPError, bool) {
	var se *SNMPError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
