package persona

// Traits is the assistant's 6-dimensional personality dial vector.
// Every value is kept in [0,1].
type Traits struct {
	Kindness       float64 `json:"kindness"`
	Directness     float64 `json:"directness"`
	Encouragement  float64 `json:"encouragement"`
	Accountability float64 `json:"accountability"`
	Supportiveness float64 `json:"supportiveness"`
	WisdomFocus    float64 `json:"wisdom_focus"`
}

// Baseline returns the default trait vector.
func Baseline() Traits {
	return Traits{
		Kindness:       0.7,
		Directness:     0.3,
		Encouragement:  0.6,
		Accountability: 0.4,
		Supportiveness: 0.7,
		WisdomFocus:    0.5,
	}
}

// clamp bounds every dial to [0,1].
func (t *Traits) clamp() {
	for _, p := range []*float64{
		&t.Kindness, &t.Directness, &t.Encouragement,
		&t.Accountability, &t.Supportiveness, &t.WisdomFocus,
	} {
		if *p < 0 {
			*p = 0
		}
		if *p > 1 {
			*p = 1
		}
	}
}

// InBounds reports whether every dial lies in [0,1].
func (t Traits) InBounds() bool {
	for _, v := range []float64{
		t.Kindness, t.Directness, t.Encouragement,
		t.Accountability, t.Supportiveness, t.WisdomFocus,
	} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}
