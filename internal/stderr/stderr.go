//go:build !windows

// Package stderr captures output that audio libraries write directly to
// file descriptor 2, bypassing os.Stderr. ALSA, loaded by the speaker
// backend, prints underrun and device warnings this way, which would
// otherwise be drawn over the TUI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	mu         sync.Mutex
	origStderr = -1
	pipeRead   *os.File
	pipeWrite  *os.File
	messages   chan string
	readerDone chan struct{}
)

// Start redirects fd 2 into a pipe. Call it before the audio output is
// opened. On error the program keeps its original stderr.
func Start() error {
	mu.Lock()
	defer mu.Unlock()
	if origStderr >= 0 {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}
	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return err
	}

	origStderr, pipeRead, pipeWrite = orig, r, w
	messages = make(chan string, messageBuffer)
	readerDone = make(chan struct{})
	go scan(r, messages, readerDone)
	return nil
}

func scan(r *os.File, out chan<- string, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		default:
			// Nobody is reading fast enough; drop.
		}
	}
}

// Messages returns the captured lines. The channel is closed by Stop. It
// is nil when capture is not running.
func Messages() <-chan string {
	mu.Lock()
	defer mu.Unlock()
	return messages
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
func WriteOriginal(msg string) {
	mu.Lock()
	fd := origStderr
	mu.Unlock()
	if fd < 0 {
		_, _ = os.Stderr.WriteString(msg)
		return
	}
	_, _ = unix.Write(fd, []byte(msg))
}

// Stop restores the original stderr and closes the Messages channel.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if origStderr < 0 {
		return
	}

	_ = unix.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = unix.Close(origStderr)
	origStderr = -1

	// fd 2 no longer refers to the pipe, so closing our end delivers EOF.
	pipeWrite.Close()
	<-readerDone
	pipeRead.Close()
	messages = nil
}
