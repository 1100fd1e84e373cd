package host

import "sync"

// textSnapshot is the host's Snapshot implementation: an immutable
// string plus a memoization cache for change ranges computed against
// it, keyed by the identity of the older snapshot being diffed
// against (so a language service's identity-based caching sees the
// same *ChangeRange object for repeated old/new pairs).
type textSnapshot struct {
	text string

	mu     sync.Mutex
	ranges map[Snapshot]*ChangeRange
}

func newSnapshot(text string) *textSnapshot {
	return &textSnapshot{text: text, ranges: make(map[Snapshot]*ChangeRange)}
}

func (s *textSnapshot) GetText(start, end int) string { return s.text[start:end] }

func (s *textSnapshot) GetLength() int { return len(s.text) }

// GetChangeRange computes the minimal edit between old and s: the
// longest common prefix and suffix of the two texts bound the span
// that actually changed.
func (s *textSnapshot) GetChangeRange(old Snapshot) *ChangeRange {
	if old == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cr, ok := s.ranges[old]; ok {
		return cr
	}

	oldText := old.GetText(0, old.GetLength())
	cr := computeChangeRange(oldText, s.text)
	s.ranges[old] = cr
	return cr
}

func computeChangeRange(oldText, newText string) *ChangeRange {
	oldLen, newLen := len(oldText), len(newText)

	prefix := 0
	maxPrefix := oldLen
	if newLen < maxPrefix {
		maxPrefix = newLen
	}
	for prefix < maxPrefix && oldText[prefix] == newText[prefix] {
		prefix++
	}

	suffix := 0
	maxSuffix := oldLen - prefix
	if rem := newLen - prefix; rem < maxSuffix {
		maxSuffix = rem
	}
	for suffix < maxSuffix && oldText[oldLen-1-suffix] == newText[newLen-1-suffix] {
		suffix++
	}

	return &ChangeRange{
		Start:     prefix,
		Length:    oldLen - suffix - prefix,
		NewLength: newLen - prefix - suffix,
	}
}
