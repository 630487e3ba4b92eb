package ondemand

import (
	"fmt"
	"math"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/internal/options"
	"github.com/arloliu/skim/internal/pool"
	"github.com/arloliu/skim/internal/scan"
	"github.com/arloliu/skim/internal/strcache"
	"github.com/arloliu/skim/tape"
)

const (
	// DefaultMaxDepth is the nesting ceiling applied when no explicit depth
	// is configured.
	DefaultMaxDepth = 1024

	// DefaultMaxCapacity is the largest document a parser accepts unless
	// lowered by SetMaxCapacity. Token offsets are 32-bit, so this is also
	// the hard upper bound; on 32-bit platforms it is clamped to what int
	// can represent.
	DefaultMaxCapacity = int(uint64(tape.MaxOffset) & uint64(math.MaxInt))
)

// Parser owns the reusable buffers behind document iteration: the structural
// token tape, the bracket stack used during indexing, and the scratch region
// that backs unescaped strings. A parser amortizes allocation across
// documents; reusing one instance for many Iterate calls is the intended
// usage pattern.
//
// A Parser is not safe for concurrent use, and at most one Document or
// DocumentStream obtained from it may be live at a time.
type Parser struct {
	tokens  []tape.Token
	stack   []uint32
	scratch *pool.ByteBuffer
	cache   *strcache.Cache

	capacity    int
	maxCapacity int
	maxDepth    int

	// generation stamps scratch-backed string views; it advances whenever
	// the scratch buffer or the tape may be rewritten.
	generation uint64

	live bool
}

// ParserOption configures a Parser during construction.
type ParserOption = options.Option[*Parser]

// WithMaxCapacity caps the size of documents the parser will accept.
// The cap cannot exceed DefaultMaxCapacity because token offsets are 32-bit.
func WithMaxCapacity(n int) ParserOption {
	return options.New(func(p *Parser) error {
		if n <= 0 || n > DefaultMaxCapacity {
			return fmt.Errorf("%w: max capacity %d out of range (1..%d)", errs.ErrCapacityExceeded, n, DefaultMaxCapacity)
		}
		p.maxCapacity = n

		return nil
	})
}

// WithMaxDepth sets the nesting ceiling enforced while indexing.
func WithMaxDepth(n int) ParserOption {
	return options.New(func(p *Parser) error {
		if n <= 0 {
			return fmt.Errorf("%w: max depth %d must be positive", errs.ErrDepthExceeded, n)
		}
		p.maxDepth = n

		return nil
	})
}

// NewParser creates a parser with no buffers allocated yet. Buffers grow on
// first use, or eagerly via Allocate.
func NewParser(opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		scratch:     pool.NewByteBuffer(pool.ScratchBufferDefaultSize),
		cache:       strcache.New(),
		maxCapacity: DefaultMaxCapacity,
		maxDepth:    DefaultMaxDepth,
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	return p, nil
}

// Capacity reports the largest document the parser can currently index
// without growing its buffers.
func (p *Parser) Capacity() int { return p.capacity }

// MaxCapacity reports the document size ceiling.
func (p *Parser) MaxCapacity() int { return p.maxCapacity }

// MaxDepth reports the nesting ceiling.
func (p *Parser) MaxDepth() int { return p.maxDepth }

// SetMaxCapacity changes the document size ceiling. Already-grown buffers
// are kept; the ceiling only gates future Iterate calls and Allocate
// requests.
func (p *Parser) SetMaxCapacity(n int) error {
	if n <= 0 || n > DefaultMaxCapacity {
		return fmt.Errorf("%w: max capacity %d out of range (1..%d)", errs.ErrCapacityExceeded, n, DefaultMaxCapacity)
	}
	p.maxCapacity = n

	return nil
}

// Allocate grows the parser's buffers to handle documents up to capacity
// bytes nested up to maxDepth levels. Calling it ahead of time avoids
// growth during the first Iterate. Shrinking never happens here; capacity
// below the current one only updates the depth limit.
func (p *Parser) Allocate(capacity int, maxDepth int) error {
	if capacity < 0 {
		return fmt.Errorf("%w: capacity %d is not representable", errs.ErrMemoryAllocation, capacity)
	}
	if capacity > p.maxCapacity {
		return fmt.Errorf("%w: capacity %d exceeds max capacity %d", errs.ErrCapacityExceeded, capacity, p.maxCapacity)
	}
	if maxDepth <= 0 {
		return fmt.Errorf("%w: max depth %d must be positive", errs.ErrDepthExceeded, maxDepth)
	}

	p.maxDepth = maxDepth
	if cap(p.stack) < maxDepth {
		p.stack = make([]uint32, 0, maxDepth)
	}
	if capacity > p.capacity {
		p.scratch.Grow(capacity)
		// Worst case tape density is one token per two input bytes
		// ("[0,0,...]"), but documents flirting with that are rare; start
		// from a quarter and let append grow the rest.
		if want := capacity/4 + 16; cap(p.tokens) < want {
			p.tokens = make([]tape.Token, 0, want)
		}
		p.capacity = capacity
	}
	p.generation++

	return nil
}

// Iterate indexes data and returns a Document positioned at its root value.
//
// The bytes are borrowed, not copied: data must remain alive and unmodified
// until the Document is closed. Structure is validated as far as bracket
// matching and token shape; full grammar and value checks happen lazily as
// the document is traversed.
//
// Whitespace-only input fails with errs.ErrEmpty. Input larger than
// MaxCapacity fails with errs.ErrCapacityExceeded. While the returned
// Document is open the parser is leased to it and further Iterate calls
// fail with errs.ErrParserInUse.
func (p *Parser) Iterate(data []byte) (*Document, error) {
	if p.live {
		return nil, errs.ErrParserInUse
	}
	if len(data) > p.maxCapacity {
		return nil, fmt.Errorf("%w: document size %d exceeds max capacity %d", errs.ErrCapacityExceeded, len(data), p.maxCapacity)
	}
	if len(data) > p.capacity {
		if err := p.Allocate(len(data), p.maxDepth); err != nil {
			return nil, err
		}
	}

	res := scan.Index(data, p.tokens[:0], p.stack[:0], p.maxDepth, true)
	p.tokens = res.Tokens
	p.stack = res.Stack
	p.generation++

	if res.Err != nil {
		return nil, res.Err
	}
	if len(res.Tokens) == 0 {
		return nil, errs.ErrEmpty
	}
	if first := res.Tokens[0].Kind; !first.IsValueStart() {
		return nil, fmt.Errorf("%w: document starts with %s", errs.ErrTapeError, first)
	}
	if end := tape.ValueEnd(res.Tokens, 0); end != len(res.Tokens) {
		return nil, fmt.Errorf("%w: trailing content after document root", errs.ErrTapeError)
	}

	p.live = true
	doc := &Document{}
	doc.it = docIter{
		parser: p,
		data:   data,
		tokens: p.tokens,
		start:  0,
		end:    len(p.tokens),
	}
	doc.release = p.endLease

	return doc, nil
}

func (p *Parser) endLease() {
	p.live = false
	p.generation++
}

// intern returns a Go string for an escape-free raw span, sharing storage
// with previously returned equal strings where possible.
func (p *Parser) intern(raw []byte) string {
	return p.cache.Intern(raw)
}

// scratchBytes hands out the scratch region for one string materialization.
// Each call invalidates views produced by earlier calls.
func (p *Parser) scratchBytes() []byte {
	p.generation++

	return p.scratch.B[:0]
}
