package ident

// Server allocates local ids within one scope. Allocation is monotonic:
// an id handed out or claimed is never handed out again.
type Server struct {
	scope string
	next  int
}

// NewServer returns a server for scope whose first allocation is 0.
func NewServer(scope string) *Server {
	return &Server{scope: scope}
}

// Scope returns the address prefix of every id this server allocates.
func (s *Server) Scope() string {
	return s.scope
}

// Allocate returns a fresh id.
func (s *Server) Allocate() ID {
	id := ID{Scope: s.scope, Local: s.next}
	s.next++
	return id
}

// Claim marks local as used, typically because it was read from storage,
// and advances the server past it.
func (s *Server) Claim(local int) ID {
	if local >= s.next {
		s.next = local + 1
	}
	return ID{Scope: s.scope, Local: local}
}

// Reserve advances the server so that the next allocation is at least n.
func (s *Server) Reserve(n int) {
	if n > s.next {
		s.next = n
	}
}

// Next returns the local id the next Allocate will return.
func (s *Server) Next() int {
	return s.next
}
