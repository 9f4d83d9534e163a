// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xpcap wraps CEP packets into UDP datagrams of a pcap capture.
package xpcap // import "github.com/go-lpc/cep/internal/xpcap"

import (
	"fmt"
	"io"
	"net"

	"github.com/go-lpc/cep/udp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const (
	BasePort = 16130 // UDP destination port of the first station port
	MaxPorts = 4     // max number of ports of a station

	snaplen = 65536
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x22, 0x86, 0x00, 0x1a, 0xc0}
	dstMAC = net.HardwareAddr{0x00, 0x22, 0x86, 0x00, 0x00, 0x01}
	srcIP  = net.IPv4(10, 211, 0, 1)
	dstIP  = net.IPv4(10, 211, 0, 100)
)

// Writer writes CEP packets as UDP datagrams into a pcap capture.
// Each call to Write must hold a whole number of packets of the
// configured size. Capture timestamps are derived from the CEP headers.
type Writer struct {
	w    *pcapgo.Writer
	size int

	eth   layers.Ethernet
	ip    layers.IPv4
	dgram layers.UDP
	buf   gopacket.SerializeBuffer
	opts  gopacket.SerializeOptions
	hdr   udp.Header
}

// NewWriter writes the pcap file header to w and returns a writer for
// CEP packets of size bytes sent to the given station port.
func NewWriter(w io.Writer, port, size int) (*Writer, error) {
	if port < 0 || port >= MaxPorts {
		return nil, fmt.Errorf("xpcap: invalid port %d: %w", port, udp.ErrConfig)
	}
	if size < udp.HeaderLen {
		return nil, fmt.Errorf("xpcap: invalid packet size %d: %w", size, udp.ErrConfig)
	}

	pw := pcapgo.NewWriter(w)
	err := pw.WriteFileHeader(snaplen, layers.LinkTypeEthernet)
	if err != nil {
		return nil, fmt.Errorf("xpcap: could not write file header: %w", err)
	}

	wrt := &Writer{
		w:    pw,
		size: size,
		eth: layers.Ethernet{
			SrcMAC:       srcMAC,
			DstMAC:       dstMAC,
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip: layers.IPv4{
			Version:  4,
			TTL:      64,
			Flags:    layers.IPv4DontFragment,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    srcIP,
			DstIP:    dstIP,
		},
		dgram: layers.UDP{
			SrcPort: layers.UDPPort(BasePort + port),
			DstPort: layers.UDPPort(BasePort + port),
		},
		buf:  gopacket.NewSerializeBuffer(),
		opts: gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
	}
	err = wrt.dgram.SetNetworkLayerForChecksum(&wrt.ip)
	if err != nil {
		return nil, fmt.Errorf("xpcap: could not setup UDP checksum: %w", err)
	}
	return wrt, nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p)%w.size != 0 {
		return 0, fmt.Errorf("xpcap: block of %d bytes is not a multiple of the packet size %d", len(p), w.size)
	}

	for beg := 0; beg < len(p); beg += w.size {
		err := w.writePacket(p[beg : beg+w.size])
		if err != nil {
			return beg, err
		}
	}
	return len(p), nil
}

func (w *Writer) writePacket(pkt []byte) error {
	err := w.hdr.UnmarshalBinary(pkt[:udp.HeaderLen])
	if err != nil {
		return fmt.Errorf("xpcap: could not decode CEP header: %w", err)
	}

	err = w.buf.Clear()
	if err != nil {
		return fmt.Errorf("xpcap: could not reset serialize buffer: %w", err)
	}

	err = gopacket.SerializeLayers(w.buf, w.opts, &w.eth, &w.ip, &w.dgram, gopacket.Payload(pkt))
	if err != nil {
		return fmt.Errorf("xpcap: could not serialize datagram: %w", err)
	}

	raw := w.buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     w.hdr.Time(),
		CaptureLength: len(raw),
		Length:        len(raw),
	}
	err = w.w.WritePacket(ci, raw)
	if err != nil {
		return fmt.Errorf("xpcap: could not write datagram: %w", err)
	}
	return nil
}

var (
	_ io.Writer = (*Writer)(nil)
)
