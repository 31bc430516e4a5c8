package ratings

// Aggregate is the derived (average, count) pair kept on a profile per Type.
type Aggregate struct {
	Average float64
	Count   int
}

// Compute recomputes the aggregate from the full star history.
func Compute(stars []int) Aggregate {
	if len(stars) == 0 {
		return Aggregate{}
	}
	sum := 0
	for _, s := range stars {
		sum += s
	}
	return Aggregate{Average: float64(sum) / float64(len(stars)), Count: len(stars)}
}

func ComputeFrom(rs []*Rating) Aggregate {
	stars := make([]int, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			continue
		}
		stars = append(stars, r.Stars)
	}
	return Compute(stars)
}
