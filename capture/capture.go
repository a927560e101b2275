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

// Package capture delivers timestamped SNMP datagrams from a live
// network interface through a BPF filter.
package capture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/neteye/snmpscope/snmp"
)

// Datagram is one captured UDP payload with its transport 5-tuple.
type Datagram struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   int
	DstPort   int
	Payload   []byte
	Size      int
}

// Source is a live capture bound to an interface.
type Source struct {
	opts   *Options
	handle *pcap.Handle
	logger *slog.Logger

	received snmp.Counter
	dropped  snmp.Counter
}

// Open binds a live capture to the configured interface and installs
// the BPF filter. The returned source must be closed.
func Open(opts ...Option) (*Source, error) {
	options := NewOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	iface := options.Interface
	if iface == "" {
		// pcap's default device is the first one it enumerates.
		devs, err := pcap.FindAllDevs()
		if err != nil {
			return nil, fmt.Errorf("capture: list interfaces: %w", err)
		}
		if len(devs) == 0 {
			return nil, fmt.Errorf("capture: no capture interface available")
		}
		iface = devs[0].Name
	}

	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", iface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snmp.MaxMessageSize); err != nil {
		return nil, fmt.Errorf("capture: snaplen: %w", err)
	}
	if err := inactive.SetPromisc(options.Promiscuous); err != nil {
		return nil, fmt.Errorf("capture: promisc: %w", err)
	}
	if err := inactive.SetTimeout(pcap.BlockForever); err != nil {
		return nil, fmt.Errorf("capture: timeout: %w", err)
	}
	if options.BufferSize > 0 {
		if err := inactive.SetBufferSize(options.BufferSize); err != nil {
			return nil, fmt.Errorf("capture: buffer size: %w", err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("capture: activate %s: %w", iface, err)
	}

	if err := handle.SetBPFFilter(options.Filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("capture: filter %q: %w", options.Filter, err)
	}

	logger.Info("capture started", "interface", iface, "filter", options.Filter)

	return &Source{
		opts:   options,
		handle: handle,
		logger: logger,
	}, nil
}

// Datagrams starts the capture goroutine and returns the delivery
// channel. The channel closes when the handle is closed or done is
// closed. Delivery never blocks: datagrams arriving while the queue is
// full are counted as drops.
func (s *Source) Datagrams(done <-chan struct{}) <-chan Datagram {
	out := make(chan Datagram, s.opts.QueueSize)
	source := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	source.NoCopy = true

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case pkt, ok := <-source.Packets():
				if !ok {
					return
				}
				dg, ok := Extract(pkt)
				if !ok {
					continue
				}
				s.received.Add(1)
				select {
				case out <- dg:
				default:
					s.dropped.Add(1)
				}
			}
		}
	}()

	return out
}

// Extract pulls the UDP payload and 5-tuple out of a captured packet.
func Extract(pkt gopacket.Packet) (Datagram, bool) {
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return Datagram{}, false
	}
	udp := udpLayer.(*layers.UDP)

	dg := Datagram{
		Timestamp: pkt.Metadata().Timestamp,
		SrcPort:   int(udp.SrcPort),
		DstPort:   int(udp.DstPort),
		Payload:   udp.Payload,
		Size:      pkt.Metadata().Length,
	}
	if dg.Timestamp.IsZero() {
		dg.Timestamp = time.Now()
	}
	if dg.Size == 0 {
		dg.Size = len(pkt.Data())
	}

	switch {
	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		dg.SrcIP = ip.SrcIP.String()
		dg.DstIP = ip.DstIP.String()
	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		dg.SrcIP = ip.SrcIP.String()
		dg.DstIP = ip.DstIP.String()
	default:
		return Datagram{}, false
	}

	return dg, true
}

// Received returns the number of delivered datagrams.
func (s *Source) Received() int64 {
	return s.received.Value()
}

// Dropped returns the number of datagrams lost to backpressure.
func (s *Source) Dropped() int64 {
	return s.dropped.Value()
}

// Close releases the capture handle.
func (s *Source) Close() {
	if s.handle != nil {
		s.handle.Close()
	}
	if n := s.dropped.Value(); n > 0 {
		s.logger.Warn("capture closed with drops", "dropped", n)
	} else {
		s.logger.Info("capture closed")
	}
}
