// Command snap-bridge decodes SNAP frames from a serial device, publishes
// them to Redis, and turns queued Redis commands back into outgoing
// frames. It is the operational front end for pkg/snap, shaped the way
// the bluetooth-service's own cmd/bluetooth-service wires pkg/usock and
// pkg/redis together.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/librescoot/snap-framing/pkg/redisbridge"
	"github.com/librescoot/snap-framing/pkg/snap"
	transportserial "github.com/librescoot/snap-framing/pkg/transport/serial"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate     = flag.Int("baud", 115200, "Serial baud rate")
	redisAddr    = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass    = flag.String("redis-pass", "", "Redis password")
	redisDB      = flag.Int("redis-db", 0, "Redis database number")

	edm = flag.Int("edm", 4, "Error-detection mode for frames this bridge originates (0-7)")
	dab = flag.Int("dab", 1, "Destination-address width code for originated frames (0-3)")
	sab = flag.Int("sab", 0, "Source-address width code for originated frames (0-3)")
	pfb = flag.Int("pfb", 0, "Protocol-flags width code for originated frames (0-3)")

	useCRC24UserHash = flag.Bool("user-hash-crc24", false, "Use CRC-24/OpenPGP as the EDM 7 user-defined hash")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting SNAP bridge")
	log.Printf("Serial device: %s", *serialDevice)
	log.Printf("Baud rate: %d", *baudRate)
	log.Printf("Redis address: %s", *redisAddr)

	var userHash snap.UserHash
	if *useCRC24UserHash {
		userHash = snap.CRC24OpenPGPHash{}
	}

	client, err := redisbridge.New(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()
	log.Printf("Connected to Redis")

	bridge := redisbridge.NewBridge(client, nil)
	bridge.UserHash = userHash
	bridge.OutgoingHeader = snap.Header{
		DAB: byte(*dab),
		SAB: byte(*sab),
		PFB: byte(*pfb),
		EDM: byte(*edm),
	}

	var portOpts []transportserial.Option
	if userHash != nil {
		portOpts = append(portOpts, transportserial.WithUserHash(userHash))
	}

	port, err := transportserial.Open(*serialDevice, *baudRate, bridge.HandleFrame, portOpts...)
	if err != nil {
		log.Fatalf("Failed to open serial port: %v", err)
	}
	defer port.Close()
	log.Printf("Listening for SNAP frames on %s", *serialDevice)

	bridge.Send = port.Write
	go bridge.WatchOutgoing()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	bridge.Stop()
	log.Printf("Shutting down...")
}
