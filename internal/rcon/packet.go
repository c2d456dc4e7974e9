package rcon

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Packet types of the game server's remote console protocol.
const (
	packetAuth         = 3
	packetAuthResponse = 2
	packetCommand      = 2
	packetResponse     = 0
)

// maxPayload guards against malformed length prefixes from a broken peer.
const maxPayload = 1 << 20

type packet struct {
	RequestID int32
	Type      int32
	Body      string
}

// writePacket frames and writes one packet: little-endian int32 length,
// request ID, type, body, two NUL terminators.
func writePacket(w io.Writer, p packet) error {
	body := []byte(p.Body)
	length := int32(4 + 4 + len(body) + 2)

	buf := make([]byte, 4+length)
	binary.LittleEndian.PutUint32(buf[0:], uint32(length))
	binary.LittleEndian.PutUint32(buf[4:], uint32(p.RequestID))
	binary.LittleEndian.PutUint32(buf[8:], uint32(p.Type))
	copy(buf[12:], body)
	// trailing two NULs are already zero

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// readPacket reads one framed packet.
func readPacket(r io.Reader) (packet, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return packet{}, fmt.Errorf("read length: %w", err)
	}
	length := int32(binary.LittleEndian.Uint32(lengthBuf[:]))
	if length < 10 || length > maxPayload {
		return packet{}, fmt.Errorf("invalid packet length %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return packet{}, fmt.Errorf("read body: %w", err)
	}

	return packet{
		RequestID: int32(binary.LittleEndian.Uint32(buf[0:])),
		Type:      int32(binary.LittleEndian.Uint32(buf[4:])),
		Body:      string(buf[8 : length-2]),
	}, nil
}
