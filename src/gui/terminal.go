package gui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal presents messages on a writer, for standalone run-once use.
type Terminal struct {
	mu sync.Mutex
	W  io.Writer
}

func (t *Terminal) Show(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.W, message)
}

// TerminalConfirm asks on Out and reads y/n from In. Without Interactive it
// declines without asking.
type TerminalConfirm struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool
}

func (c TerminalConfirm) ConfirmClipboard(ctx context.Context, text string) bool {
	if !c.Interactive {
		return false
	}
	fmt.Fprintf(c.Out, "%s\n%s\n%s [y/N]: ", confirmMessage, preview(text), confirmTitle)

	line := make(chan string, 1)
	go func() {
		s, _ := bufio.NewReader(c.In).ReadString('\n')
		line <- s
	}()
	select {
	case s := <-line:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "y", "yes":
			return true
		}
		return false
	case <-ctx.Done():
		return false
	}
}
