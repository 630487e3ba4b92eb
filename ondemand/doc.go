// Package ondemand implements lazy, allocation-reusing JSON iteration.
//
// A Parser owns reusable buffers (the structural token tape, a string
// unescape scratch region, and the scanner's bracket stack) sized to a
// capacity ceiling. Iterating a document indexes its structure once, then
// validates and materializes only the values the caller visits: grammar
// checking happens during traversal and value decoding happens at the
// access call, so a malformed region that is never visited is never
// reported and never paid for.
//
// # Single Document
//
//	parser, _ := ondemand.NewParser()
//	doc, err := parser.Iterate(data)
//	if err != nil {
//	    return err
//	}
//	defer doc.Close()
//
//	obj, _ := doc.Object()
//	for field, err := range obj.Fields() {
//	    if err != nil {
//	        return err
//	    }
//	    name, _ := field.Name()
//	    fmt.Println(name, field.Value().Type())
//	}
//
// # Many Documents
//
// IterateMany splits a concatenated multi-document buffer into batches and
// indexes the next batch on a background goroutine while the caller consumes
// the current one:
//
//	stream, err := parser.IterateMany(data)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for doc, err := range stream.All() {
//	    if err != nil {
//	        continue // error is scoped to one document region
//	    }
//	    // use doc; it stays valid until the next document is produced
//	}
//
// # Lifetime Rules
//
// The input buffer is borrowed, never copied: it must stay alive and
// unmodified for as long as the Document or DocumentStream is in use. A
// parser supports one live iteration at a time; starting another before
// closing the previous one fails with errs.ErrParserInUse. Zero-copy string
// views returned by Value.StringBytes share the parser's scratch buffer and
// are invalidated by the next string materialization; stale access is
// detected and reported rather than returning overwritten bytes.
package ondemand
