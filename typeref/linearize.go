package typeref

import (
	"errors"
)

// ErrInconsistentHierarchy is returned when declared supertypes cannot be
// merged into a single linearization.
var ErrInconsistentHierarchy = errors.New("typeref: inconsistent type hierarchy")

// Linearize computes the C3 linearization of r over its declared supertypes.
func Linearize(r *Ref) ([]*Ref, error) {
	return c3MRO(r, nil)
}

// c3Merge merges the candidate sequences into a single linearization using
// the C3 algorithm.
func c3Merge(seqs [][]*Ref) ([]*Ref, error) {
	var result []*Ref
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return result, nil
		}
		var candidate *Ref
		for _, s1 := range seqs {
			candidate = s1[0]
			for _, s2 := range seqs {
				if inTail(s2, candidate) {
					// The head appears later in another sequence; reject it.
					candidate = nil
					break
				}
			}
			if candidate != nil {
				break
			}
		}
		if candidate == nil {
			return nil, ErrInconsistentHierarchy
		}
		result = append(result, candidate)
		for i, s := range seqs {
			if Equal(s[0], candidate) {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(s []*Ref, t *Ref) bool {
	for _, x := range s[1:] {
		if Equal(x, t) {
			return true
		}
	}
	return false
}

// c3MRO computes the linearization of cls, inserting the virtual bases in
// abcs where their behaviour is introduced: a virtual base is attached to the
// most derived type that implements it while none of that type's declared
// bases do.
func c3MRO(cls *Ref, abcs []*Ref) ([]*Ref, error) {
	bases := cls.bases
	boundary := 0
	for i := len(bases) - 1; i >= 0; i-- {
		if bases[i].marker {
			// Bases up to the last explicit marker are considered first.
			boundary = i + 1
			break
		}
	}
	explicit := bases[:boundary]
	other := bases[boundary:]

	var abstract []*Ref
	for _, m := range abcs {
		if IsSubtype(cls, m) && !anySubtypeOf(bases, m) {
			abstract = append(abstract, m)
		}
	}
	rest := make([]*Ref, 0, len(abcs))
	for _, m := range abcs {
		if !containsRef(abstract, m) {
			rest = append(rest, m)
		}
	}

	seqs := [][]*Ref{{cls}}
	for _, group := range [][]*Ref{explicit, abstract, other} {
		for _, b := range group {
			s, err := c3MRO(b, rest)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, s)
		}
	}
	for _, group := range [][]*Ref{explicit, abstract, other} {
		seqs = append(seqs, append([]*Ref(nil), group...))
	}
	return c3Merge(seqs)
}

// composeMRO linearizes cls extended with the related registry candidates as
// virtual bases. Candidates already present in the declared chain, unrelated
// candidates, and strict bases of other candidates are dropped first.
func composeMRO(cls *Ref, candidates []*Ref) ([]*Ref, error) {
	own, err := c3MRO(cls, nil)
	if err != nil {
		return nil, err
	}
	var related []*Ref
	for _, c := range candidates {
		if c.origin != nil || c.inner != nil {
			continue
		}
		if containsRef(own, c) || !IsSubtype(cls, c) {
			continue
		}
		related = append(related, c)
	}
	var kept []*Ref
	for _, c := range related {
		strictBase := false
		for _, o := range related {
			if Equal(c, o) {
				continue
			}
			omro, err := c3MRO(o, nil)
			if err != nil {
				return nil, err
			}
			if containsRef(omro, c) {
				strictBase = true
				break
			}
		}
		if !strictBase {
			kept = append(kept, c)
		}
	}
	return c3MRO(cls, kept)
}

func containsRef(s []*Ref, t *Ref) bool {
	for _, x := range s {
		if Equal(x, t) {
			return true
		}
	}
	return false
}

func anySubtypeOf(s []*Ref, m *Ref) bool {
	for _, x := range s {
		if IsSubtype(x, m) {
			return true
		}
	}
	return false
}
