package compactor

import (
	"fmt"
	"io"
	"iter"

	binarysearchfile "github.com/trichter/binarysearchfile"
	"github.com/trichter/binarysearchfile/bsfile"
	"github.com/trichter/binarysearchfile/record"
)

// A Source yields records to compact. Both file flavors satisfy it.
type Source interface {
	All() iter.Seq2[record.Record, error]
}

// Compact streams every record from every source into one sorted file
// on w. Sources are drained in order but may hold records in any order;
// the output is sorted by key with duplicates kept. Compacting no
// sources writes nothing; compacting only empty sources fails with
// bsfile.ErrEmptyWrite like any other empty write.
func Compact(w io.Writer, format binarysearchfile.Format, srcs ...Source) error {
	if len(srcs) == 0 {
		return nil
	}

	bw, err := bsfile.NewWriter(w, format, nil)
	if err != nil {
		return fmt.Errorf("compactor: %w", err)
	}
	for i, src := range srcs {
		for rec, err := range src.All() {
			if err != nil {
				return fmt.Errorf("compactor: source %d: %w", i, err)
			}
			if err := bw.Add(rec); err != nil {
				return fmt.Errorf("compactor: source %d: %w", i, err)
			}
		}
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("compactor: %w", err)
	}
	return nil
}
