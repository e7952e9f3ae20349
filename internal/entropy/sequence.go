package entropy

// Sequence is a scripted Source that replays fixed values, cycling when
// exhausted. Tests use it to force dice and weather outcomes.
type Sequence struct {
	Ints   []int     // raw Intn results, reduced modulo n
	Floats []float64 // Float64 results

	ni, nf int
	nb     byte
}

// Dice builds a Sequence whose Intn(6) calls yield the given die faces.
func Dice(faces ...int) *Sequence {
	ints := make([]int, len(faces))
	for i, f := range faces {
		ints[i] = f - 1
	}
	return &Sequence{Ints: ints}
}

// Intn returns the next scripted integer modulo n.
func (s *Sequence) Intn(n int) int {
	if n <= 0 || len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ni%len(s.Ints)]
	s.ni++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Float64 returns the next scripted float, or 0.5 when none are set.
func (s *Sequence) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0.5
	}
	v := s.Floats[s.nf%len(s.Floats)]
	s.nf++
	return v
}

// Read fills p with a counting byte pattern.
func (s *Sequence) Read(p []byte) (int, error) {
	for i := range p {
		s.nb++
		p[i] = s.nb
	}
	return len(p), nil
}
