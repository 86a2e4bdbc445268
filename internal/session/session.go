package session

import (
	"github.com/dgallion1/docblocks/internal/block"
)

// EditablePolicy decides whether blocks of a kind are offered for editing.
type EditablePolicy func(kind block.Kind) bool

// TablesOnly is the default policy: tables are edited, prose is rendered.
func TablesOnly(kind block.Kind) bool {
	return kind == block.KindTable
}

// Option configures a Session.
type Option func(*Session)

// WithEditable sets the editability policy. A nil policy is ignored.
func WithEditable(policy EditablePolicy) Option {
	return func(s *Session) {
		if policy != nil {
			s.editable = policy
		}
	}
}

// Session holds the current block sequence of one document.
//
// A Session is not safe for concurrent use; callers that receive events
// concurrently must serialize Load, UpdateBlock and Flatten.
type Session struct {
	blocks   []block.Block
	loaded   bool
	editable EditablePolicy
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{editable: TablesOnly}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load segments doc and replaces the held sequence wholesale.
func (s *Session) Load(doc string) {
	s.blocks = block.Segment(doc)
	s.loaded = true
}

// Loaded reports whether a document has been loaded.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Len returns the number of blocks held.
func (s *Session) Len() int {
	return len(s.blocks)
}

// UpdateBlock replaces the text of the block with the given id. Unknown or
// stale ids are ignored; the return value reports whether a block changed.
func (s *Session) UpdateBlock(id, text string) bool {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			s.blocks[i].Text = text
			return true
		}
	}
	return false
}

// Block returns the block with the given id.
func (s *Session) Block(id string) (block.Block, bool) {
	for _, b := range s.blocks {
		if b.ID == id {
			return b, true
		}
	}
	return block.Block{}, false
}

// Snapshot returns a copy of the current sequence.
func (s *Session) Snapshot() []block.Block {
	out := make([]block.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Flatten reassembles the current block texts into one document.
func (s *Session) Flatten() string {
	return block.Join(s.blocks)
}

// Editable reports whether the block with the given id may be edited
// under the session's policy. Unknown ids are not editable.
func (s *Session) Editable(id string) bool {
	b, ok := s.Block(id)
	if !ok {
		return false
	}
	policy := s.editable
	if policy == nil {
		policy = TablesOnly
	}
	return policy(b.Kind)
}
