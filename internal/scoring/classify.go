package scoring

type Category string

const (
	CategoryReach  Category = "reach"
	CategoryTarget Category = "target"
	CategorySafety Category = "safety"
)

// Thresholds are the lower bounds of the target and safety tiers on the 100 point basis.
type Thresholds struct {
	Target int `json:"target"`
	Safety int `json:"safety"`
}

var DefaultThresholds = Thresholds{Target: 40, Safety: 70}

func (t Thresholds) valid() bool {
	return t.Target > 0 && t.Safety > t.Target && t.Safety <= scoreBasis
}

// Classify maps a score to its tier. A score equal to a threshold belongs to the higher tier.
func Classify(score int, t Thresholds) Category {
	switch {
	case score >= t.Safety:
		return CategorySafety
	case score >= t.Target:
		return CategoryTarget
	default:
		return CategoryReach
	}
}

// next returns the tier above c and its lower threshold. ok is false for safety.
func (t Thresholds) next(c Category) (Category, int, bool) {
	switch c {
	case CategoryReach:
		return CategoryTarget, t.Target, true
	case CategoryTarget:
		return CategorySafety, t.Safety, true
	default:
		return "", 0, false
	}
}
