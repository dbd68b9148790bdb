package dice

// Sequence is a Source that replays scripted die faces in order. It is meant
// for tests that need reproducible attack outcomes.
//
// Each call to Intn(n) consumes the next face f and returns f-1, so the
// Roller reports exactly f. Faces outside 1..n are clamped. When the script
// runs out every further draw returns face 1.
type Sequence struct {
	faces []int
	next  int
}

// NewSequence creates a Sequence that yields the given faces.
func NewSequence(faces ...int) *Sequence {
	return &Sequence{faces: faces}
}

// Intn implements Source.
func (s *Sequence) Intn(n int) int {
	if s.next >= len(s.faces) {
		return 0
	}
	face := s.faces[s.next]
	s.next++
	if face < 1 {
		face = 1
	}
	if face > n {
		face = n
	}
	return face - 1
}

// Remaining returns how many scripted faces have not been consumed.
func (s *Sequence) Remaining() int {
	return len(s.faces) - s.next
}

// Consumed returns how many faces have been drawn.
func (s *Sequence) Consumed() int {
	return s.next
}
