package region

import (
	"slices"
	"sort"

	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// Region is a span of a file in which one rule identifier is disabled.
type Region struct {
	position.Range
	Rule string
	// Command is the command that opened the region.
	Command Command
}

// Set is the resolved, immutable collection of disabled regions of one
// file. A nil *Set disables nothing.
type Set struct {
	regions  []Region
	index    map[string][]position.Range
	commands []Command
	invalid  []Command
}

// Resolve scans the comments of tree for commands and turns them into
// regions. When only is non-empty, commands are narrowed to those rule
// identifiers (and all).
//
// A block disable opens a region for each named rule that runs until a
// matching enable or, if none follows, to the end of the file. "enable
// all" closes every open region. A disable with a modifier covers exactly
// one line; an enable with a modifier carves that line out of the regions
// disabled under the same identifier.
func Resolve(tree *syntax.Tree, conv *position.Converter, only ...string) *Set {
	s := &Set{index: make(map[string][]position.Range)}
	filter := syntax.NewTypeSet(only...)

	for _, c := range syntax.Comments(tree.Cursor()) {
		cmd, _, ok := FindCommand(c.Text)
		if !ok {
			continue
		}
		cmd.Position = c.Range.Start
		cmd.Line = conv.Line(cmd.Position)
		if !cmd.Valid() {
			s.invalid = append(s.invalid, cmd)
			continue
		}
		if len(filter) > 0 {
			cmd.Rules = slices.DeleteFunc(cmd.Rules, func(r string) bool {
				return r != All && !filter.Has(r)
			})
			if len(cmd.Rules) == 0 {
				continue
			}
		}
		s.commands = append(s.commands, cmd)
	}

	s.build(conv)
	return s
}

type openRegion struct {
	start position.Position
	cmd   Command
}

type hole struct {
	rule string
	rng  position.Range
}

func (s *Set) build(conv *position.Converter) {
	open := make(map[string]openRegion)
	var holes []hole

	closeRegion := func(rule string, end position.Position) {
		o, ok := open[rule]
		if !ok {
			return
		}
		delete(open, rule)
		if end > o.start {
			s.regions = append(s.regions, Region{Range: position.NewRange(o.start, end), Rule: rule, Command: o.cmd})
		}
	}

	for _, cmd := range s.commands {
		if cmd.Modifier != ModifierNone {
			rng, ok := conv.LineRange(cmd.Line + lineDelta(cmd.Modifier))
			if !ok {
				continue
			}
			for _, rule := range cmd.Rules {
				if cmd.Action == Disable {
					s.regions = append(s.regions, Region{Range: rng, Rule: rule, Command: cmd})
				} else {
					holes = append(holes, hole{rule: rule, rng: rng})
				}
			}
			continue
		}

		switch cmd.Action {
		case Disable:
			for _, rule := range cmd.Rules {
				if _, ok := open[rule]; !ok {
					open[rule] = openRegion{start: cmd.Position, cmd: cmd}
				}
			}
		case Enable:
			if cmd.Applies(All) {
				for rule := range open {
					closeRegion(rule, cmd.Position)
				}
				continue
			}
			for _, rule := range cmd.Rules {
				closeRegion(rule, cmd.Position)
			}
		}
	}
	for rule := range open {
		closeRegion(rule, position.EOF)
	}

	for _, h := range holes {
		s.regions = carve(s.regions, h)
	}

	sort.SliceStable(s.regions, func(i, j int) bool {
		a, b := s.regions[i], s.regions[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Rule < b.Rule
	})

	for _, r := range s.regions {
		s.index[r.Rule] = append(s.index[r.Rule], r.Range)
	}
	for rule, ranges := range s.index {
		s.index[rule] = merge(ranges)
	}
}

func lineDelta(m Modifier) int {
	switch m {
	case Previous:
		return -1
	case Next:
		return 1
	}
	return 0
}

// carve removes the span of h from every region of the same rule, or
// from every region when h addresses all rules.
func carve(regions []Region, h hole) []Region {
	out := regions[:0:0]
	for _, r := range regions {
		if (h.rule != All && r.Rule != h.rule) || !r.Overlaps(h.rng) {
			out = append(out, r)
			continue
		}
		if r.Start < h.rng.Start {
			before := r
			before.Range = position.NewRange(r.Start, h.rng.Start)
			out = append(out, before)
		}
		if h.rng.End < r.End {
			after := r
			after.Range = position.NewRange(h.rng.End, r.End)
			out = append(out, after)
		}
	}
	return out
}

// merge sorts ranges and joins the ones that overlap or touch.
func merge(ranges []position.Range) []position.Range {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	out := ranges[:0]
	for _, r := range ranges {
		if n := len(out); n > 0 && r.Start <= out[n-1].End {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contains reports whether rule is disabled at p, either by name or
// through all. It runs in logarithmic time in the number of regions.
func (s *Set) Contains(p position.Position, rule string) bool {
	if s == nil {
		return false
	}
	return within(s.index[rule], p) || (rule != All && within(s.index[All], p))
}

func within(ranges []position.Range, p position.Position) bool {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].End > p })
	return i < len(ranges) && ranges[i].Start <= p
}

// Regions returns every region in source order.
func (s *Set) Regions() []Region {
	if s == nil {
		return nil
	}
	return slices.Clone(s.regions)
}

// For returns the regions disabled under exactly the given identifier.
func (s *Set) For(rule string) []Region {
	if s == nil {
		return nil
	}
	var out []Region
	for _, r := range s.regions {
		if r.Rule == rule {
			out = append(out, r)
		}
	}
	return out
}

// Len is the number of regions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.regions)
}

// Commands returns the valid commands in source order.
func (s *Set) Commands() []Command {
	if s == nil {
		return nil
	}
	return slices.Clone(s.commands)
}

// Invalid returns commands that carried the prefix but could not be
// understood.
func (s *Set) Invalid() []Command {
	if s == nil {
		return nil
	}
	return slices.Clone(s.invalid)
}
