//go:build js && wasm

package opfs

// Default returns the platform's file system: in a browser, the real
// origin-private file system.
func Default() FileSystem {
	return NewFS()
}
