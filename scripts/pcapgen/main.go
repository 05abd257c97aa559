package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type packet struct {
	ts      time.Time
	src     net.IP
	dst     net.IP
	srcPort layers.TCPPort
	dstPort layers.TCPPort
	size    int
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	flowCount := flag.Int("f", 100, "Number of flows to generate")
	maxPackets := flag.Int("p", 20, "Most packets per flow")
	span := flag.Duration("span", 10*time.Minute, "Flows start within this long after the capture start")
	gap := flag.Duration("gap", 2*time.Second, "Longest gap between packets of a flow")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	base := time.Now().Add(-*span).Truncate(time.Second)

	// Packets of all flows are interleaved and written in capture order.
	var packets []packet
	for i := 0; i < *flowCount; i++ {
		src := net.IP{10, byte(rng.Intn(256)), byte(rng.Intn(256)), byte(1 + rng.Intn(254))}
		dst := net.IP{192, 168, byte(rng.Intn(256)), byte(1 + rng.Intn(254))}
		srcPort := layers.TCPPort(rng.Intn(65535-1024) + 1024)
		dstPort := layers.TCPPort([]int{22, 80, 443, 8080}[rng.Intn(4)])

		ts := base.Add(time.Duration(rng.Int63n(int64(*span))))
		n := 1 + rng.Intn(*maxPackets)
		for j := 0; j < n; j++ {
			packets = append(packets, packet{
				ts: ts, src: src, dst: dst, srcPort: srcPort, dstPort: dstPort,
				size: rng.Intn(1400) + 50,
			})
			ts = ts.Add(time.Duration(rng.Int63n(int64(*gap))))
		}
	}
	sort.SliceStable(packets, func(i, j int) bool { return packets[i].ts.Before(packets[j].ts) })

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	log.Printf("Generating %d flows (%d packets) into %s...", *flowCount, len(packets), *outputFile)

	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	for _, p := range packets {
		ethLayer := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ipLayer := &layers.IPv4{
			SrcIP:    p.src,
			DstIP:    p.dst,
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
		}
		tcpLayer := &layers.TCP{
			SrcPort: p.srcPort,
			DstPort: p.dstPort,
			Seq:     rng.Uint32(),
			ACK:     true,
			Window:  14600,
		}
		tcpLayer.SetNetworkLayerForChecksum(ipLayer)

		payload := make([]byte, p.size)
		rng.Read(payload)

		buf := gopacket.NewSerializeBuffer()
		if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, tcpLayer, gopacket.Payload(payload)); err != nil {
			log.Fatalf("Failed to serialize layers: %v", err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     p.ts,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := pcapWriter.WritePacket(ci, buf.Bytes()); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets into %s.", len(packets), *outputFile)
}
