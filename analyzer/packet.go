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

// Package analyzer implements the passive side of snmpscope: decoding
// captured datagrams into packets, correlating requests with
// responses, detecting anomalies, and persisting observations.
package analyzer

import (
	"fmt"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// Kind is the observed PDU kind of a decoded packet.
type Kind int

const (
	KindUnknown Kind = iota
	KindGet
	KindGetNext
	KindGetBulk
	KindSet
	KindResponse
	KindTrapV1
	KindTrapV2
)

// String returns the stored label of the kind.
func (k Kind) String() string {
	switch k {
	case KindGet:
		return "GET"
	case KindGetNext:
		return "GETNEXT"
	case KindGetBulk:
		return "GETBULK"
	case KindSet:
		return "SET"
	case KindResponse:
		return "RESPONSE"
	case KindTrapV1:
		return "TRAPv1"
	case KindTrapV2:
		return "TRAPv2"
	default:
		return "unknown"
	}
}

// IsRequest reports whether the kind opens a pending request.
func (k Kind) IsRequest() bool {
	switch k {
	case KindGet, KindGetNext, KindGetBulk, KindSet:
		return true
	}
	return false
}

// IsTrap reports whether the kind is an unsolicited notification.
func (k Kind) IsTrap() bool {
	return k == KindTrapV1 || k == KindTrapV2
}

// Packet is one decoded SNMP datagram as observed on the wire.
type Packet struct {
	Timestamp time.Time

	SrcIP   string
	DstIP   string
	SrcPort int
	DstPort int

	Version         snmp.SNMPVersion
	CommunityOrUser string
	Kind            Kind
	Variables       []snmp.Variable

	// EnterpriseOID is set for TRAPv1 packets only.
	EnterpriseOID string

	// ErrorStatus is meaningful for kinds that carry one on the wire.
	ErrorStatus    snmp.ErrorStatus
	HasErrorStatus bool

	PacketSize int

	// ResponseTime is the request/response latency; valid only when
	// Correlated is set by the correlator.
	ResponseTime time.Duration
	Correlated   bool
}

// Endpoints returns "src:sport → dst:dport" for display.
func (p *Packet) Endpoints() string {
	return fmt.Sprintf("%s:%d → %s:%d", p.SrcIP, p.SrcPort, p.DstIP, p.DstPort)
}

// SerializeVarbinds joins the packet's varbinds as "oid:value" pairs
// separated by ";", the stored trap representation.
func (p *Packet) SerializeVarbinds() string {
	out := ""
	for i := range p.Variables {
		if i > 0 {
			out += ";"
		}
		out += p.Variables[i].OID.String() + ":" + p.Variables[i].Render()
	}
	return out
}
