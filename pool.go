package mqcodec

import "github.com/valyala/bytebufferpool"

var bufferPool bytebufferpool.Pool

func getBuffer() *bytebufferpool.ByteBuffer {
	return bufferPool.Get()
}

func putBuffer(buf *bytebufferpool.ByteBuffer) {
	bufferPool.Put(buf)
}
