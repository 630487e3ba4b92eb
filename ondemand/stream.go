package ondemand

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/internal/options"
	"github.com/arloliu/skim/internal/pool"
	"github.com/arloliu/skim/internal/scan"
	"github.com/arloliu/skim/tape"
)

const (
	// DefaultBatchSize is the window size used by IterateMany when none is
	// configured. Large enough that most inputs hold many documents per
	// window, small enough to stay cache friendly.
	DefaultBatchSize = 1_000_000

	// MinimalBatchSize is the smallest accepted batch size.
	MinimalBatchSize = 32
)

// StreamOption configures a DocumentStream.
type StreamOption = options.Option[*DocumentStream]

// WithBatchSize sets the indexing window size. Every document in the input
// must fit inside one window; a document larger than the batch size is
// reported as errs.ErrBatchCapacity.
func WithBatchSize(n int) StreamOption {
	return options.New(func(s *DocumentStream) error {
		if n < MinimalBatchSize {
			return fmt.Errorf("%w: batch size %d below minimum %d", errs.ErrBatchCapacity, n, MinimalBatchSize)
		}
		s.batchSize = n

		return nil
	})
}

// WithLookahead enables or disables background indexing of the next batch.
// Enabled by default; disabling it keeps all work on the calling goroutine.
func WithLookahead(enabled bool) StreamOption {
	return options.NoError(func(s *DocumentStream) {
		s.lookahead = enabled
	})
}

type batchReq struct {
	start, end int
	atEOF      bool
	tokens     []tape.Token
	stack      []uint32
}

type batchRes struct {
	res        scan.Result
	start, end int
	atEOF      bool
}

// DocumentStream walks a buffer of concatenated JSON documents, indexing
// one batch-sized window at a time. While the caller consumes the current
// window's documents, a lookahead goroutine indexes the next window into a
// second token buffer; adopting its result is a pointer swap.
//
// Errors are scoped: a malformed region yields one error from Next, then the
// stream resynchronizes at the next newline and continues. Documents from a
// stream stay valid only until the next Next call; Close on them is a no-op,
// the stream's Close releases the parser.
//
// A DocumentStream is not safe for concurrent use.
type DocumentStream struct {
	parser    *Parser
	data      []byte
	batchSize int
	lookahead bool

	// current window
	win      []byte
	winStart int
	tokens   []tape.Token
	stack    []uint32
	pos      int
	ntokens  int

	nextStart  int
	pendingErr error

	doc    Document
	docOff int

	// lookahead machinery
	spareTokens []tape.Token
	spareStack  []uint32
	reqCh       chan batchReq
	resCh       chan batchRes
	stopCh      chan struct{}
	wg          sync.WaitGroup
	inflight    bool

	closed bool
}

// IterateMany prepares a stream over data, which holds zero or more
// whitespace-separated JSON documents. The bytes are borrowed for the
// stream's whole lifetime. The parser is leased until Close.
func (p *Parser) IterateMany(data []byte, opts ...StreamOption) (*DocumentStream, error) {
	if p.live {
		return nil, errs.ErrParserInUse
	}

	s := &DocumentStream{
		parser:    p,
		data:      data,
		batchSize: DefaultBatchSize,
		lookahead: true,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if s.batchSize > p.maxCapacity {
		return nil, fmt.Errorf("%w: batch size %d exceeds max capacity %d", errs.ErrCapacityExceeded, s.batchSize, p.maxCapacity)
	}

	window := min(s.batchSize, len(data))
	if window > p.capacity {
		if err := p.Allocate(window, p.maxDepth); err != nil {
			return nil, err
		}
	}

	p.live = true
	s.tokens = p.tokens
	s.stack = p.stack

	if s.lookahead && len(data) > s.batchSize {
		s.spareTokens = pool.GetTokenSlice(window / 4)
		s.spareStack = pool.GetUint32Slice(p.maxDepth)
		s.reqCh = make(chan batchReq, 1)
		s.resCh = make(chan batchRes, 1)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.run()
	}

	return s, nil
}

// Next returns the next document, or an error scoped to one malformed
// region. The end of input is io.EOF. The returned document is valid only
// until the following Next call.
func (s *DocumentStream) Next() (*Document, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		for s.pos < s.ntokens {
			tok := s.tokens[s.pos]
			if !tok.Kind.IsValueStart() {
				// stray separator between documents; report and keep going
				s.pos++

				return nil, fmt.Errorf("%w: unexpected %s between documents at offset %d",
					errs.ErrTapeError, tok.Kind, s.winStart+int(tok.Off))
			}

			start := s.pos
			s.pos = tape.ValueEnd(s.tokens, s.pos)
			s.docOff = s.winStart + int(tok.Off)
			s.parser.generation++
			s.doc = Document{it: docIter{
				parser: s.parser,
				data:   s.win,
				tokens: s.tokens,
				start:  start,
				end:    s.pos,
			}}

			return &s.doc, nil
		}

		if s.pendingErr != nil {
			err := s.pendingErr
			s.pendingErr = nil

			return nil, err
		}

		if err := s.advance(); err != nil {
			return nil, err
		}
	}
}

// All iterates the remaining documents as (doc, err) pairs. Region errors
// are yielded with a nil document and iteration continues past them; the
// end of input terminates the sequence.
func (s *DocumentStream) All() iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		for {
			doc, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(doc, err) {
				return
			}
		}
	}
}

// Index reports the byte offset, within the stream's input, of the document
// most recently returned by Next.
func (s *DocumentStream) Index() int {
	return s.docOff
}

// Close stops the lookahead goroutine, returns the spare buffers to the pool
// and releases the parser. Safe to call more than once.
func (s *DocumentStream) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.stopCh != nil {
		close(s.stopCh)
		s.wg.Wait()
	}
	if s.inflight {
		// recover the buffers lent to the worker; both channels hold at
		// most one entry, and a worker stopped mid-request drops them
		select {
		case r := <-s.resCh:
			s.spareTokens, s.spareStack = r.res.Tokens, r.res.Stack
		case req := <-s.reqCh:
			s.spareTokens, s.spareStack = req.tokens, req.stack
		default:
		}
		s.inflight = false
	}

	// the spare pair and the active pair never share a backing array: only
	// the spare may return to the pool, only the active pair stays on the
	// parser
	if s.spareTokens != nil {
		pool.PutTokenSlice(s.spareTokens)
		s.spareTokens = nil
	}
	if s.spareStack != nil {
		pool.PutUint32Slice(s.spareStack)
		s.spareStack = nil
	}

	// hand the active buffers back so the next iteration reuses their growth
	s.parser.tokens = s.tokens
	s.parser.stack = s.stack
	s.parser.endLease()
}

// advance loads the next window, waiting for the lookahead result when one
// is in flight. Returns io.EOF when the input is exhausted.
func (s *DocumentStream) advance() error {
	if s.nextStart >= len(s.data) {
		return io.EOF
	}

	if s.inflight {
		r := <-s.resCh
		s.inflight = false
		spareT, spareS := s.tokens, s.stack
		s.adopt(r.res, r.start, r.end, r.atEOF)
		s.spareTokens, s.spareStack = spareT, spareS
	} else {
		start := s.nextStart
		end := min(start+s.batchSize, len(s.data))
		atEOF := end == len(s.data)
		res := scan.Index(s.data[start:end], s.tokens[:0], s.stack[:0], s.parser.maxDepth, atEOF)
		s.adopt(res, start, end, atEOF)
	}

	s.schedule()

	return nil
}

// adopt installs a scan result as the current window and decides where the
// next window begins: at the clipped boundary on a clean cut, or past the
// next newline when the region is poisoned.
func (s *DocumentStream) adopt(res scan.Result, start, end int, atEOF bool) {
	s.win = s.data[start:end]
	s.winStart = start
	s.tokens = res.Tokens
	s.stack = res.Stack
	s.pos = 0
	s.ntokens = res.BoundaryTokens
	s.pendingErr = nil

	switch {
	case res.Err == nil && atEOF:
		s.nextStart = len(s.data)
		if res.BoundaryTokens < len(res.Tokens) {
			tok := res.Tokens[res.BoundaryTokens]
			s.pendingErr = fmt.Errorf("%w: trailing content at offset %d", errs.ErrTapeError, start+int(tok.Off))
		}
	case res.Err == nil:
		switch {
		case len(res.Tokens) == 0:
			// whitespace-only window
			s.nextStart = end
		case res.BoundaryTokens == 0:
			// no document completed inside a full window
			s.pendingErr = fmt.Errorf("%w: document at offset %d exceeds batch size %d", errs.ErrBatchCapacity, start, s.batchSize)
			s.nextStart = s.resync(end)
		default:
			s.nextStart = start + res.BoundaryBytes
		}
	case res.Definite || atEOF:
		s.pendingErr = res.Err
		s.nextStart = s.resync(start + res.ErrOff + 1)
	case res.BoundaryTokens == 0:
		// the error may be a window-cut artifact, but nothing fit either way
		s.pendingErr = fmt.Errorf("%w: document at offset %d exceeds batch size %d", errs.ErrBatchCapacity, start, s.batchSize)
		s.nextStart = s.resync(end)
	default:
		// indefinite error past the boundary; rescan that tail with more input
		s.nextStart = start + res.BoundaryBytes
	}
}

// resync finds the restart point after a poisoned region: one past the next
// newline, or end of input when none remains.
func (s *DocumentStream) resync(from int) int {
	if from >= len(s.data) {
		return len(s.data)
	}
	if idx := bytes.IndexByte(s.data[from:], '\n'); idx >= 0 {
		return from + idx + 1
	}

	return len(s.data)
}

// schedule hands the next window to the lookahead goroutine, lending it the
// spare buffers until the result is adopted.
func (s *DocumentStream) schedule() {
	if s.stopCh == nil || s.inflight || s.nextStart >= len(s.data) {
		return
	}

	start := s.nextStart
	end := min(start+s.batchSize, len(s.data))
	s.reqCh <- batchReq{
		start:  start,
		end:    end,
		atEOF:  end == len(s.data),
		tokens: s.spareTokens,
		stack:  s.spareStack,
	}
	s.spareTokens, s.spareStack = nil, nil
	s.inflight = true
}

func (s *DocumentStream) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.reqCh:
			res := scan.Index(s.data[req.start:req.end], req.tokens[:0], req.stack[:0], s.parser.maxDepth, req.atEOF)
			select {
			case <-s.stopCh:
				return
			case s.resCh <- batchRes{res: res, start: req.start, end: req.end, atEOF: req.atEOF}:
			}
		}
	}
}
