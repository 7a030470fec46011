// Package announce broadcasts a signed UDP multicast presence beacon so LAN
// dashboards can discover running sensorstream servers without configuration.
package announce

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/ipv4"
)

// Payload is the data broadcast on each announce tick.
type Payload struct {
	Version   uint8    `msgpack:"version"`
	Timestamp int64    `msgpack:"timestamp"`
	Hostname  string   `msgpack:"hostname"`
	Port      int      `msgpack:"port"`
	Kinds     []string `msgpack:"kinds"`
}

// Config holds beacon settings.
type Config struct {
	MulticastGroup string
	Port           int
	Interval       time.Duration
	SharedSecret   string
	// ServerPort is the query port advertised in the payload.
	ServerPort int
	// Kinds lists the hardware kinds the server exposes.
	Kinds []string
}

// Start runs the periodic announce loop until ctx is canceled. The shared
// secret must be set; unsigned beacons are not sent.
func Start(ctx context.Context, cfg Config, log zerolog.Logger) error {
	if cfg.SharedSecret == "" || cfg.SharedSecret == "CHANGE_ME" {
		return fmt.Errorf("announce shared_secret must be set (not 'CHANGE_ME')")
	}

	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", cfg.MulticastGroup, cfg.Port))
	if err != nil {
		return fmt.Errorf("resolving multicast address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return fmt.Errorf("listening for UDP: %w", err)
	}
	defer conn.Close()

	// ipv4.PacketConn is used for multicast control
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(1); err != nil {
		log.Warn().Err(err).Msg("Failed to set multicast TTL")
	}

	log.Info().
		Str("multicast_group", cfg.MulticastGroup).
		Int("port", cfg.Port).
		Dur("interval", cfg.Interval).
		Msg("Announce beacon started")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	send := func() {
		if err := sendAnnounce(conn, addr, cfg, log); err != nil {
			log.Error().Err(err).Str("target", addr.String()).Msg("Failed to send announce")
		}
	}

	send()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Announce beacon stopped")
			return nil
		case <-ticker.C:
			send()
		}
	}
}

func sendAnnounce(conn *net.UDPConn, addr *net.UDPAddr, cfg Config, log zerolog.Logger) error {
	hostname, _ := os.Hostname()

	payload := &Payload{
		Version:   1,
		Timestamp: time.Now().Unix(),
		Hostname:  hostname,
		Port:      cfg.ServerPort,
		Kinds:     cfg.Kinds,
	}

	packet, err := Encode(payload, cfg.SharedSecret)
	if err != nil {
		return err
	}

	if _, err := conn.WriteToUDP(packet, addr); err != nil {
		return fmt.Errorf("writing packet to %s: %w", addr, err)
	}

	log.Debug().
		Str("target", addr.String()).
		Str("hostname", payload.Hostname).
		Int("bytes", len(packet)).
		Msg("Announce sent")

	return nil
}

// Encode serializes and signs a payload: HMAC-SHA256 signature followed by
// the MessagePack body.
func Encode(payload *Payload, secret string) ([]byte, error) {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	sig := ComputeHMAC(data, secret)
	return append(sig, data...), nil
}

// Decode verifies and deserializes an announce packet. Packets with a bad
// signature or a timestamp outside maxAge are rejected.
func Decode(packet []byte, secret string, maxAge time.Duration) (*Payload, error) {
	if len(packet) <= HMACSize {
		return nil, fmt.Errorf("packet too small (%d bytes)", len(packet))
	}

	sig := packet[:HMACSize]
	data := packet[HMACSize:]

	if !VerifyHMAC(sig, data, secret) {
		return nil, fmt.Errorf("HMAC validation failed")
	}

	var payload Payload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling payload: %w", err)
	}

	age := time.Since(time.Unix(payload.Timestamp, 0))
	if age > maxAge || age < -maxAge {
		return nil, fmt.Errorf("stale timestamp (age %s)", age)
	}

	return &payload, nil
}
