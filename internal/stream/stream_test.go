package stream

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestEndpointString(t *testing.T) {
	tcp := Endpoint{Host: "db.example.com", Port: 3306}
	if tcp.String() != "db.example.com:3306" || tcp.network() != "tcp" {
		t.Fatalf("tcp endpoint: %s/%s", tcp.String(), tcp.network())
	}
	unix := Endpoint{UnixSocket: "/var/run/mysqld/mysqld.sock"}
	if unix.String() != "/var/run/mysqld/mysqld.sock" || unix.network() != "unix" {
		t.Fatalf("unix endpoint: %s/%s", unix.String(), unix.network())
	}
}

func TestConnectReadWriteLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte("pong!"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := New(Endpoint{Host: "127.0.0.1", Port: uint16(addr.Port)}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer s.Close()

	if _, err := s.WriteSome(ctx, []byte("ping!")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	buf := make([]byte, 5)
	n, err := s.ReadSome(ctx, buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf[:n]) != "pong!" {
		t.Fatalf("read %q", buf[:n])
	}
}

func TestReadHonorsContextDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Hold the connection open without sending anything.
		time.Sleep(2 * time.Second)
		conn.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := New(Endpoint{Host: "127.0.0.1", Port: uint16(addr.Port)}, nil)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = s.ReadSome(ctx, make([]byte, 16))
	if err == nil {
		t.Fatal("expected the read to fail at the deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("read did not respect the deadline (took %v)", elapsed)
	}
}

func TestReadBeforeConnectFails(t *testing.T) {
	s := New(Endpoint{Host: "127.0.0.1", Port: 3306}, nil)
	if _, err := s.ReadSome(context.Background(), make([]byte, 1)); err == nil {
		t.Fatal("expected an error before Connect")
	}
}
