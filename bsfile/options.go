package bsfile

import "go.uber.org/zap"

const defaultBufferSize = 32 * 1024

// Options configures opening and writing. The zero value and nil are
// both valid and mean defaults.
type Options struct {
	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger

	// BufferSize is the write buffer size in bytes.
	BufferSize int
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) bufferSize() int {
	if o == nil || o.BufferSize <= 0 {
		return defaultBufferSize
	}
	return o.BufferSize
}
