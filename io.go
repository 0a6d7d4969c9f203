package zipp

import (
	"context"
	"io"
	"sync"
)

var copyBuffers = sync.Pool{
	New: func() any {
		b := make([]byte, 64*1024)
		return &b
	},
}

// copyContext copies src to dst until EOF or until ctx is done, whichever comes first.
//
// ctx is checked before every read so a cancelled copy stops within one buffer's worth of data.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	bp := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(bp)

	return io.CopyBuffer(dst, contextReader{ctx: ctx, r: src}, *bp)
}

// contextReader fails all reads once ctx is done.
//
// It must not implement io.WriterTo, or io.CopyBuffer would bypass Read.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	return r.r.Read(p)
}
