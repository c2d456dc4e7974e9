package rcon

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := packet{RequestID: 7, Type: packetCommand, Body: "say hello"}
	if err := writePacket(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := readPacket(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestPacketNegativeRequestID(t *testing.T) {
	var buf bytes.Buffer
	if err := writePacket(&buf, packet{RequestID: -1, Type: packetAuthResponse}); err != nil {
		t.Fatal(err)
	}
	out, err := readPacket(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if out.RequestID != -1 {
		t.Errorf("requestID = %d, want -1", out.RequestID)
	}
}

func TestReadPacketRejectsBadLength(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"too short", []byte{2, 0, 0, 0, 0, 0}},
		{"oversized", []byte{0, 0, 0x7f, 0x7f}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readPacket(bytes.NewReader(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// fakeServer speaks just enough of the console protocol for the client:
// one auth exchange, then echoing command responses.
func fakeServer(t *testing.T, password string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				for {
					p, err := readPacket(conn)
					if err != nil {
						return
					}
					switch p.Type {
					case packetAuth:
						id := p.RequestID
						if p.Body != password {
							id = -1
						}
						writePacket(conn, packet{RequestID: id, Type: packetAuthResponse})
					default:
						writePacket(conn, packet{RequestID: p.RequestID, Type: packetResponse, Body: "ran: " + p.Body})
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func clientFor(t *testing.T, addr, password string) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(host, port, password, time.Millisecond)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientExec(t *testing.T) {
	addr := fakeServer(t, "hunter2")
	c := clientFor(t, addr, "hunter2")

	out, err := c.Exec(context.Background(), "time set day")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ran: time set day" {
		t.Errorf("response = %q", out)
	}
}

func TestClientAuthFailure(t *testing.T) {
	addr := fakeServer(t, "hunter2")
	c := clientFor(t, addr, "wrong")

	_, err := c.Exec(context.Background(), "say hi")
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("err = %v, want ErrAuthFailed", err)
	}
}

func TestExecBatchSerializes(t *testing.T) {
	addr := fakeServer(t, "hunter2")
	c := clientFor(t, addr, "hunter2")

	cmds := []string{"fill 0 0 0 1 1 1 stone", "setblock 0 2 0 torch"}
	if err := c.ExecBatch(context.Background(), cmds); err != nil {
		t.Fatal(err)
	}
	// the connection survives the batch and stays usable
	out, err := c.Exec(context.Background(), "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "list") {
		t.Errorf("response = %q", out)
	}
}

func TestExecBatchEmptyNoDial(t *testing.T) {
	c := NewClient("127.0.0.1", 1, "pw", time.Millisecond)
	if err := c.ExecBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch errored: %v", err)
	}
}
