package pipeio

import (
	"golang.org/x/sys/unix"
	"testing"
)

func TestNewPipeReadEndNonBlocking(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.CloseRead()
	defer p.CloseWrite()

	buf := make([]byte, 16)
	_, err = unix.Read(p.ReadFD, buf)
	if err != unix.EAGAIN {
		t.Fatalf("Read on empty nonblocking pipe = %v, want EAGAIN", err)
	}
}

func TestPipeRoundTrip(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.CloseRead()

	msg := []byte("hello")
	if _, err := unix.Write(p.WriteFD, msg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := p.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite() error = %v", err)
	}

	buf := make([]byte, 16)
	n, err := unix.Read(p.ReadFD, buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Read() = %q, want %q", buf[:n], "hello")
	}

	n, err = unix.Read(p.ReadFD, buf)
	if err != nil {
		t.Fatalf("Read() after write-close error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Read() after write-close = %d bytes, want EOF (0)", n)
	}
}
