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

// Package probe builds, sends and retries SNMP requests: GET, SET,
// GETNEXT walks, GETBULK, trap emission, discovery sweeps and periodic
// polling.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// retryDelay is the pause between GET attempts.
const retryDelay = 500 * time.Millisecond

// Prober emits SNMP requests over UDP. One Prober is safe for
// concurrent use; the discovery sweep relies on that.
type Prober struct {
	opts   *Options
	logger *slog.Logger
	stats  *Stats
	start  time.Time

	requestID int32

	mu      sync.Mutex
	results []Result
}

// New creates a prober with the given options.
func New(opts ...Option) *Prober {
	options := NewOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		opts:      options,
		logger:    logger,
		stats:     NewStats(),
		start:     time.Now(),
		requestID: rand.Int31(),
	}
}

// Stats exposes the probe counters.
func (p *Prober) Stats() *Stats {
	return p.stats
}

// Results returns a copy of every result recorded so far.
func (p *Prober) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

func (p *Prober) record(r *Result) *Result {
	p.mu.Lock()
	p.results = append(p.results, *r)
	p.mu.Unlock()
	return r
}

func (p *Prober) nextRequestID() int32 {
	id := atomic.AddInt32(&p.requestID, 1)
	if id <= 0 {
		atomic.StoreInt32(&p.requestID, 1)
		return 1
	}
	return id
}

func (p *Prober) agentAddr(target string) string {
	return net.JoinHostPort(target, strconv.Itoa(p.opts.Port))
}

// dial opens the UDP flow to the target. The connection scopes the
// whole operation: replies arriving after it closes are discarded by
// the kernel, so there is no unsolicited handling.
func (p *Prober) dial(addr string) (net.Conn, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("probe: dial %s: %w", addr, err)
	}
	return conn, nil
}

// exchange writes one encoded message and waits one timeout for a
// reply whose request ID matches. Frames that fail to decode or match
// are ignored until the deadline. A reply carrying a non-zero
// error-status is returned together with a *snmp.SNMPError naming the
// offending requested OID; callers classify it with snmp.IsSNMPError.
func (p *Prober) exchange(conn net.Conn, data []byte, requestID int32, requested []snmp.OID) (*snmp.PDU, error) {
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("probe: send: %w", err)
	}
	p.stats.Sent.Add(1)

	deadline := time.Now().Add(p.opts.Timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("probe: deadline: %w", err)
	}

	buf := make([]byte, snmp.MaxMessageSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, snmp.ErrTimeout
			}
			return nil, fmt.Errorf("probe: receive: %w", err)
		}

		msg, err := snmp.DecodeMessage(buf[:n])
		if err != nil {
			p.logger.Debug("undecodable reply", "error", err)
			continue
		}
		if msg.PDU == nil || msg.PDU.RequestID != requestID {
			continue
		}

		p.stats.Received.Add(1)

		if msg.PDU.ErrorStatus != snmp.NoError {
			var oid snmp.OID
			if msg.PDU.ErrorIndex > 0 && msg.PDU.ErrorIndex <= len(requested) {
				oid = requested[msg.PDU.ErrorIndex-1]
			}
			return msg.PDU, snmp.NewSNMPError(msg.PDU.ErrorStatus, msg.PDU.ErrorIndex, oid)
		}

		return msg.PDU, nil
	}
}

// encodeRequest wraps a PDU in a v2c message.
func (p *Prober) encodeRequest(pdu *snmp.PDU) ([]byte, error) {
	msg := &snmp.Message{
		Version:   snmp.Version2c,
		Community: p.opts.Community,
		PDU:       pdu,
	}
	return msg.Encode()
}

// parseOIDs resolves symbolic names and parses the dotted forms.
func parseOIDs(oids []string) ([]snmp.OID, error) {
	parsed := make([]snmp.OID, len(oids))
	for i, s := range oids {
		oid, err := snmp.ParseOID(ResolveOID(s))
		if err != nil {
			return nil, fmt.Errorf("invalid OID '%s': %w", s, err)
		}
		parsed[i] = oid
	}
	return parsed, nil
}

// Get sends a GET for the given OIDs (dotted or symbolic) and retries
// on timeout with a fixed inter-attempt delay. The timeout budget is
// per attempt; the reported response time covers the whole operation.
func (p *Prober) Get(ctx context.Context, target string, oids []string) *Result {
	return p.get(ctx, target, oids, p.opts.Retries)
}

func (p *Prober) get(ctx context.Context, target string, oids []string, retries int) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Target:    target,
		Type:      "GET",
		Community: p.opts.Community,
		OIDs:      append([]string(nil), oids...),
		Values:    make(map[string]string),
	}

	parsed, err := parseOIDs(oids)
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	conn, err := p.dial(p.agentAddr(target))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}
	defer conn.Close()

	requestID := p.nextRequestID()
	data, err := p.encodeRequest(snmp.NewGetRequest(requestID, parsed...))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	start := time.Now()
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			p.logger.Debug("retrying GET", "target", target, "attempt", attempt)
			select {
			case <-ctx.Done():
				result.Error = ctx.Err().Error()
				result.ResponseTime = time.Since(start)
				return p.record(result)
			case <-time.After(retryDelay):
			}
		}

		pdu, err := p.exchange(conn, data, requestID, parsed)
		if err != nil {
			if snmp.IsTimeout(err) {
				continue
			}
			if _, ok := snmp.IsSNMPError(err); !ok {
				result.Error = err.Error()
				result.ResponseTime = time.Since(start)
				p.stats.Errors.Add(1)
				return p.record(result)
			}
			// A reply with an error-status is still a reply; surface
			// the typed error alongside whatever values came back.
			result.Error = err.Error()
			p.stats.Errors.Add(1)
		}

		result.ResponseTime = time.Since(start)
		result.Success = true
		p.stats.Latency.ObserveDuration(result.ResponseTime)
		p.fillValues(result, pdu.Variables)

		p.logger.Info("GET réussi",
			"target", target,
			"values", len(result.Values),
			"response_ms", result.ResponseTimeMS())
		return p.record(result)
	}

	result.ResponseTime = time.Since(start)
	result.Error = errTimeout
	p.stats.Timeouts.Add(1)
	p.logger.Warn("pas de réponse", "target", target, "retries", retries)
	return p.record(result)
}

// Set writes the given OID/value pairs in a single attempt. Values are
// typed by runtime inspection: integral values encode as INTEGER,
// everything else as OCTET STRING. Success requires a zero
// error-status in the reply.
func (p *Prober) Set(ctx context.Context, target string, oidValues map[string]interface{}) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Target:    target,
		Type:      "SET",
		Community: p.opts.Community,
		Values:    make(map[string]string),
	}

	variables := make([]snmp.Variable, 0, len(oidValues))
	requested := make([]snmp.OID, 0, len(oidValues))
	for rawOID, value := range oidValues {
		oid, err := snmp.ParseOID(ResolveOID(rawOID))
		if err != nil {
			result.Error = fmt.Sprintf("invalid OID '%s': %v", rawOID, err)
			p.stats.Errors.Add(1)
			return p.record(result)
		}
		variables = append(variables, typedVariable(oid, value))
		requested = append(requested, oid)
		result.OIDs = append(result.OIDs, oid.String())
	}

	conn, err := p.dial(p.agentAddr(target))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}
	defer conn.Close()

	requestID := p.nextRequestID()
	data, err := p.encodeRequest(snmp.NewSetRequest(requestID, variables...))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	start := time.Now()
	pdu, err := p.exchange(conn, data, requestID, requested)
	result.ResponseTime = time.Since(start)
	if err != nil {
		switch {
		case snmp.IsTimeout(err):
			result.Error = errTimeout
			p.stats.Timeouts.Add(1)
		default:
			result.Error = err.Error()
			p.stats.Errors.Add(1)
			if serr, ok := snmp.IsSNMPError(err); ok {
				p.logger.Warn("SET refusé", "target", target, "status", serr.Status.String())
			}
		}
		return p.record(result)
	}

	result.Success = true
	p.stats.Latency.ObserveDuration(result.ResponseTime)
	p.fillValues(result, pdu.Variables)
	p.logger.Info("SET réussi", "target", target, "response_ms", result.ResponseTimeMS())
	return p.record(result)
}

// typedVariable maps a runtime value onto its wire type.
func typedVariable(oid snmp.OID, value interface{}) snmp.Variable {
	switch v := value.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return snmp.Variable{OID: oid, Type: snmp.TypeInteger, Value: v}
	case string:
		return snmp.Variable{OID: oid, Type: snmp.TypeOctetString, Value: v}
	default:
		return snmp.Variable{OID: oid, Type: snmp.TypeOctetString, Value: fmt.Sprintf("%v", v)}
	}
}

func (p *Prober) fillValues(result *Result, variables []snmp.Variable) {
	for i := range variables {
		result.Values[variables[i].OID.String()] = variables[i].Render()
	}
}
