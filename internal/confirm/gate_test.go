package confirm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// scriptedSource returns bytes from a script and records how many were read.
type scriptedSource struct {
	data []byte
	read int
	err  error // returned once the script is exhausted (default io.EOF)
}

func (s *scriptedSource) ReadByte() (byte, error) {
	if s.read >= len(s.data) {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	c := s.data[s.read]
	s.read++
	return c, nil
}

// blockingSource never returns, like a terminal nobody types into.
type blockingSource struct {
	release chan struct{}
}

func (b *blockingSource) ReadByte() (byte, error) {
	<-b.release
	return 0, io.EOF
}

func TestConfirm_EqualSizesNeverBlock(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	defer close(src.release)
	var out bytes.Buffer

	g := New(src, &out)
	if err := g.Confirm(context.Background(), "disk.img", 4096, 4096); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt, got %q", out.String())
	}
}

func TestConfirm_ProceedsOnlyAfterY(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRead int
	}{
		{"immediate y", "y", 1},
		{"y after noise", "nope\nno\nY\nyes\n", 11},
		{"y with trailing input", "abcy\nzzz", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{data: []byte(tt.input)}
			var out bytes.Buffer

			err := New(src, &out).Confirm(context.Background(), "disk.img", 1024, 4096)
			if err != nil {
				t.Fatalf("expected nil, got %v", err)
			}
			if src.read != tt.wantRead {
				t.Errorf("expected to stop after %d bytes, read %d", tt.wantRead, src.read)
			}
			if !strings.Contains(out.String(), "Type y and press enter") {
				t.Errorf("expected prompt, got %q", out.String())
			}
		})
	}
}

func TestConfirm_PrefixWithoutYCancelsOnEOF(t *testing.T) {
	src := &scriptedSource{data: []byte("nnnn\n")}
	var out bytes.Buffer

	err := New(src, &out).Confirm(context.Background(), "disk.img", 1024, 4096)
	if !errors.Is(err, ErrOperatorCanceled) {
		t.Fatalf("expected ErrOperatorCanceled, got %v", err)
	}
	if src.read != 5 {
		t.Errorf("expected the whole prefix to be consumed, read %d", src.read)
	}
}

func TestConfirm_ReadError(t *testing.T) {
	src := &scriptedSource{err: errors.New("tty gone")}
	var out bytes.Buffer

	err := New(src, &out).Confirm(context.Background(), "disk.img", 1024, 4096)
	if err == nil || errors.Is(err, ErrOperatorCanceled) {
		t.Fatalf("expected read error, got %v", err)
	}
	if !strings.Contains(err.Error(), "tty gone") {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestConfirm_InterruptCancels(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	defer close(src.release)
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := New(src, &out).Confirm(ctx, "disk.img", 1024, 4096)
	if !errors.Is(err, ErrOperatorCanceled) {
		t.Fatalf("expected ErrOperatorCanceled, got %v", err)
	}
}

func TestConfirm_WarningShowsSizes(t *testing.T) {
	src := bufio.NewReader(strings.NewReader("y"))
	var out bytes.Buffer

	if err := New(src, &out).Confirm(context.Background(), "harddisk.img", 1073741824, 2147483648); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"harddisk.img", "Old size: 1073741824 (1.0 GiB)", "New size: 2147483648 (2.0 GiB)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("warning missing %q: %s", want, out.String())
		}
	}
}

// chanSource delivers bytes sent on a channel, blocking until one arrives.
type chanSource struct {
	bytes chan byte
}

func (c *chanSource) ReadByte() (byte, error) {
	b, ok := <-c.bytes
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

func TestConfirm_CanceledReaderConsumesNextByte(t *testing.T) {
	src := &chanSource{bytes: make(chan byte)}
	defer close(src.bytes)
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(src, &out).Confirm(ctx, "disk.img", 1024, 4096)
	if !errors.Is(err, ErrOperatorCanceled) {
		t.Fatalf("expected ErrOperatorCanceled, got %v", err)
	}

	// The abandoned reader is still waiting and takes the next byte
	select {
	case src.bytes <- 'y':
	case <-time.After(2 * time.Second):
		t.Fatal("expected the canceled reader to consume the next byte")
	}
}
