package ticket

import (
	"fmt"
	"strings"
)

// Kind is the closed set of ticket states the service reasons about.
// Literals stored in the sheet are mapped onto a Kind through a Vocabulary.
type Kind int

// Known kinds. KindOther collects literals no vocabulary entry matches.
const (
	KindOther Kind = iota
	KindUnread
	KindPending
	KindInProgress
	KindCompleted
)

// Kinds lists the known kinds in display order.
var Kinds = []Kind{KindUnread, KindPending, KindInProgress, KindCompleted}

func (k Kind) String() string {
	switch k {
	case KindUnread:
		return "unread"
	case KindPending:
		return "pending"
	case KindInProgress:
		return "in_progress"
	case KindCompleted:
		return "completed"
	default:
		return "other"
	}
}

// ParseKind maps a configuration key such as "in_progress" to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return KindOther, false
}

// Vocabulary maps status literals to kinds. The first literal configured for a
// kind is canonical and is what the service writes; the rest are aliases that
// are recognised on read.
type Vocabulary struct {
	literals map[Kind][]string
	lookup   map[string]Kind
}

// DefaultVocabulary covers both status sets the sheets have used over time.
func DefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(map[Kind][]string{
		KindUnread:     {"未讀"},
		KindPending:    {"待處理"},
		KindInProgress: {"進行中", "處理中"},
		KindCompleted:  {"已完成"},
	})
	if err != nil {
		panic(err)
	}
	return v
}

// NewVocabulary validates and indexes a kind -> literals mapping.
// KindUnread must have a literal because new tickets default to it.
func NewVocabulary(m map[Kind][]string) (*Vocabulary, error) {
	v := &Vocabulary{
		literals: make(map[Kind][]string, len(Kinds)),
		lookup:   make(map[string]Kind),
	}
	for _, k := range Kinds {
		for _, lit := range m[k] {
			lit = strings.TrimSpace(lit)
			if lit == "" {
				continue
			}
			if prev, ok := v.lookup[lit]; ok && prev != k {
				return nil, fmt.Errorf("status %q assigned to both %s and %s", lit, prev, k)
			}
			if _, ok := v.lookup[lit]; ok {
				continue
			}
			v.lookup[lit] = k
			v.literals[k] = append(v.literals[k], lit)
		}
	}
	if len(v.literals[KindUnread]) == 0 {
		return nil, fmt.Errorf("status vocabulary needs an %s literal", KindUnread)
	}
	return v, nil
}

// Classify returns the kind of a stored literal, KindOther when unknown.
func (v *Vocabulary) Classify(literal string) Kind {
	if k, ok := v.lookup[strings.TrimSpace(literal)]; ok {
		return k
	}
	return KindOther
}

// Known reports whether literal belongs to the vocabulary.
func (v *Vocabulary) Known(literal string) bool {
	return v.Classify(literal) != KindOther
}

// Canonical returns the literal written for k, or "" if k has none configured.
func (v *Vocabulary) Canonical(k Kind) string {
	if lits := v.literals[k]; len(lits) > 0 {
		return lits[0]
	}
	return ""
}

// Literals returns every literal configured for k, canonical first.
func (v *Vocabulary) Literals(k Kind) []string {
	return append([]string(nil), v.literals[k]...)
}

// Choices returns the canonical literal of every configured kind in display
// order, which is what a status selector offers.
func (v *Vocabulary) Choices() []string {
	out := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		if c := v.Canonical(k); c != "" {
			out = append(out, c)
		}
	}
	return out
}
