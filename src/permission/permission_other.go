//go:build !darwin || !cgo

package permission

import "golang.design/x/clipboard"

// Outside macOS there is no per-process accessibility or input-monitoring
// grant; a usable clipboard is the closest signal that a desktop session is
// reachable.
func accessibilityTrusted(bool) bool { return clipboard.Init() == nil }

func listenEventAccess() bool { return clipboard.Init() == nil }

func requestListenEventAccess() bool { return listenEventAccess() }
