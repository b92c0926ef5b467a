package providers

import "unsafe"

// addressOf returns the real runtime address of b's first byte. The caller
// must keep a reference to b for as long as the returned address is in use;
// nothing here pins it.
func addressOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
