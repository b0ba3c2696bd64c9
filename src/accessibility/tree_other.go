//go:build !darwin || !cgo

package accessibility

// SystemOpener reports ErrUnavailable: only the macOS adapter is wired.
func SystemOpener() Opener {
	return func() (Tree, error) { return nil, ErrUnavailable }
}
