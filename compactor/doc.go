// Package compactor merges records from many files into one sorted
// binary search file.
//
// Sources are anything that can iterate records: open bsfile handles,
// sequential files still being appended to, or any caller type with an
// All iterator. The merge re-sorts everything through the write path,
// so sources need not be sorted themselves, and records with equal keys
// are all kept in source order.
//
// Basic usage:
//
//	logA, err := seqfile.OpenFile("a.log", format, nil)
//	logB, err := seqfile.OpenFile("b.log", format, nil)
//	old, err := bsfile.OpenFile("merged.bin", format, nil)
//
//	out, err := os.Create("merged.next")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer out.Close()
//
//	err = compactor.Compact(out, format, logA, logB, old)
//
// The typical cycle is: accumulate writes in sequential files, compact
// them together with the previous sorted file, and swap the result in.
package compactor
