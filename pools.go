package recintern

import "sync"

var keyBytesPool = &sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

func acquireKeyBytes() *[]byte {
	return keyBytesPool.Get().(*[]byte)
}

func releaseKeyBytes(b *[]byte) {
	*b = (*b)[:0]
	keyBytesPool.Put(b)
}
