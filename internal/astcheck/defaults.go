package astcheck

// DefaultRegistry returns a Registry pre-loaded with all built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ClosingBrace{})
	r.Register(&TrailingWhitespace{})
	r.Register(&TrailingSemicolon{})
	r.Register(&FunctionLength{})
	r.Register(&NestingDepth{})
	r.Register(&EmptyHandler{})
	r.Register(&ParamCount{})
	return r
}
