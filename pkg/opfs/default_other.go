//go:build !js || !wasm

package opfs

// Default returns the platform's file system: outside a browser there is no
// origin-private sandbox, so an in-memory stand-in is used.
func Default() FileSystem {
	return NewMemoryFS()
}
