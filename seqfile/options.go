package seqfile

import "go.uber.org/zap"

// Options configures opening. The zero value and nil are both valid
// and mean defaults.
type Options struct {
	// Logger receives debug diagnostics. Nil disables logging.
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
