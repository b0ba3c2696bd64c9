// Package clipboard adapts the system clipboard for the selection capture:
// full snapshots of every item and representation, unconditional restore,
// and the clipboard's change counter.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded plain-text write. It is the only path that
// replaces clipboard content on the user's behalf (the result window's Copy
// button); capture code goes through Board.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
