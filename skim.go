// Package skim provides a lazy, allocation-reusing JSON reader.
//
// Skim indexes a document's structure in a single pass and defers all value
// validation and decoding to the moment of access. Fields that are never
// visited are never parsed: their numbers are not converted, their strings
// are not unescaped, and malformed content inside them is never even
// detected. This makes skim well suited to plucking a handful of fields out
// of large documents, and to scanning ndjson streams where each record is
// touched briefly.
//
// # Reading One Document
//
//	doc, err := skim.Open(data)
//	if err != nil {
//	    return err
//	}
//	defer doc.Close()
//
//	obj, _ := doc.Object()
//	v, ok, _ := obj.Find("user")
//	if ok {
//	    name, _ := v.String()
//	    fmt.Println(name)
//	}
//
// # Reading Many Documents
//
// OpenMany streams a buffer of concatenated documents (ndjson or
// back-to-back JSON), indexing ahead on a background goroutine:
//
//	stream, err := skim.OpenMany(data)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for doc, err := range stream.All() {
//	    if err != nil {
//	        continue // scoped to one malformed record
//	    }
//	    // doc is valid until the next iteration
//	}
//
// # Compressed Inputs
//
// OpenCompressed and OpenManyCompressed accept zstd, s2 or lz4 compressed
// buffers and decompress before indexing:
//
//	stream, err := skim.OpenManyCompressed(archive, format.CompressionZstd)
//
// # Package Structure
//
// This package provides convenient top-level entry points backed by a pool
// of reusable parsers. For explicit control over parser lifetime, capacity
// and batching, use the ondemand package directly.
package skim

import (
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/skim/compress"
	"github.com/arloliu/skim/format"
	"github.com/arloliu/skim/internal/pool"
	"github.com/arloliu/skim/ondemand"
)

var parserPool = sync.Pool{
	New: func() any {
		p, err := ondemand.NewParser()
		if err != nil {
			// NewParser without options cannot fail
			panic(fmt.Sprintf("failed to create pooled parser: %v", err))
		}

		return p
	},
}

// Document is a parsed document backed by a pooled parser. Closing it
// returns the parser (and any input buffer owned by the document) for reuse.
type Document struct {
	*ondemand.Document

	parser *ondemand.Parser
	input  *pool.ByteBuffer
	// keeps decompressed bytes reachable while the document is open
	owned []byte
}

// Close releases the document's parser back to the pool. Safe to call more
// than once.
func (d *Document) Close() {
	if d.parser == nil {
		return
	}
	d.Document.Close()
	parserPool.Put(d.parser)
	d.parser = nil
	d.owned = nil
	if d.input != nil {
		pool.PutInputBuffer(d.input)
		d.input = nil
	}
}

// Stream is a document stream backed by a pooled parser, with the same
// release behavior as Document.
type Stream struct {
	*ondemand.DocumentStream

	parser *ondemand.Parser
	input  *pool.ByteBuffer
	owned  []byte
}

// Close stops the stream and releases its parser back to the pool. Safe to
// call more than once.
func (s *Stream) Close() {
	if s.parser == nil {
		return
	}
	s.DocumentStream.Close()
	parserPool.Put(s.parser)
	s.parser = nil
	s.owned = nil
	if s.input != nil {
		pool.PutInputBuffer(s.input)
		s.input = nil
	}
}

// NewParser creates a standalone parser. Shorthand for ondemand.NewParser,
// for callers that want to manage parser reuse themselves.
func NewParser(opts ...ondemand.ParserOption) (*ondemand.Parser, error) {
	return ondemand.NewParser(opts...)
}

// Open parses a single JSON document. The bytes are borrowed and must stay
// unmodified until the document is closed.
func Open(data []byte) (*Document, error) {
	p, _ := parserPool.Get().(*ondemand.Parser)
	doc, err := p.Iterate(data)
	if err != nil {
		parserPool.Put(p)

		return nil, err
	}

	return &Document{Document: doc, parser: p}, nil
}

// OpenReader reads r to the end into a pooled buffer and parses it as a
// single document. The buffer is recycled when the document is closed.
func OpenReader(r io.Reader) (*Document, error) {
	buf := pool.GetInputBuffer()
	if _, err := io.Copy(buf, r); err != nil {
		pool.PutInputBuffer(buf)

		return nil, err
	}

	doc, err := Open(buf.Bytes())
	if err != nil {
		pool.PutInputBuffer(buf)

		return nil, err
	}
	doc.input = buf

	return doc, nil
}

// OpenCompressed decompresses data with the given algorithm, then parses the
// result as a single document.
func OpenCompressed(data []byte, ct format.CompressionType) (*Document, error) {
	plain, err := decompress(data, ct)
	if err != nil {
		return nil, err
	}

	doc, err := Open(plain)
	if err != nil {
		return nil, err
	}
	doc.owned = plain

	return doc, nil
}

// OpenMany streams a buffer of concatenated JSON documents.
func OpenMany(data []byte, opts ...ondemand.StreamOption) (*Stream, error) {
	p, _ := parserPool.Get().(*ondemand.Parser)
	stream, err := p.IterateMany(data, opts...)
	if err != nil {
		parserPool.Put(p)

		return nil, err
	}

	return &Stream{DocumentStream: stream, parser: p}, nil
}

// OpenManyReader reads r to the end into a pooled buffer and streams its
// documents. The buffer is recycled when the stream is closed.
func OpenManyReader(r io.Reader, opts ...ondemand.StreamOption) (*Stream, error) {
	buf := pool.GetInputBuffer()
	if _, err := io.Copy(buf, r); err != nil {
		pool.PutInputBuffer(buf)

		return nil, err
	}

	stream, err := OpenMany(buf.Bytes(), opts...)
	if err != nil {
		pool.PutInputBuffer(buf)

		return nil, err
	}
	stream.input = buf

	return stream, nil
}

// OpenManyCompressed decompresses data with the given algorithm, then
// streams the documents it contains.
func OpenManyCompressed(data []byte, ct format.CompressionType, opts ...ondemand.StreamOption) (*Stream, error) {
	plain, err := decompress(data, ct)
	if err != nil {
		return nil, err
	}

	stream, err := OpenMany(plain, opts...)
	if err != nil {
		return nil, err
	}
	stream.owned = plain

	return stream, nil
}

func decompress(data []byte, ct format.CompressionType) ([]byte, error) {
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}
	plain, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress input: %w", err)
	}

	return plain, nil
}
