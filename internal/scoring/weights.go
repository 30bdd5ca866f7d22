package scoring

import "fmt"

const (
	WeightSetStandard    = "standard"
	WeightSetSmartSearch = "smart_search"

	scoreBasis = 100
)

// WeightSet holds the maximum points each component can contribute.
type WeightSet struct {
	Name        string `json:"name"`
	GPAMax      int    `json:"gpaMax"`
	LanguageMax int    `json:"languageMax"`
	TestsMax    int    `json:"testsMax"`
	ExtrasMax   int    `json:"extrasMax"`
}

var (
	StandardWeights = WeightSet{
		Name:        WeightSetStandard,
		GPAMax:      40,
		LanguageMax: 30,
		TestsMax:    20,
		ExtrasMax:   10,
	}

	SmartSearchWeights = WeightSet{
		Name:        WeightSetSmartSearch,
		GPAMax:      25,
		LanguageMax: 10,
		TestsMax:    5,
		ExtrasMax:   10,
	}
)

// LookupWeightSet resolves a weight set by name. An empty name resolves to the standard set.
func LookupWeightSet(name string) (WeightSet, bool) {
	switch name {
	case "", WeightSetStandard:
		return StandardWeights, true
	case WeightSetSmartSearch:
		return SmartSearchWeights, true
	default:
		return WeightSet{}, false
	}
}

func (w WeightSet) Total() int {
	return w.GPAMax + w.LanguageMax + w.TestsMax + w.ExtrasMax
}

func (w WeightSet) Validate() error {
	if w.GPAMax < 0 || w.LanguageMax < 0 || w.TestsMax < 0 || w.ExtrasMax < 0 {
		return fmt.Errorf("weight set %q has a negative component maximum", w.Name)
	}
	if w.Total() <= 0 {
		return fmt.Errorf("weight set %q must have a positive total", w.Name)
	}
	return nil
}

// maxFor returns the component maximum rescaled to the 100 point basis.
func (w WeightSet) maxFor(c Component) float64 {
	var raw int
	switch c {
	case ComponentGPA:
		raw = w.GPAMax
	case ComponentLanguage:
		raw = w.LanguageMax
	case ComponentTests:
		raw = w.TestsMax
	case ComponentExtras:
		raw = w.ExtrasMax
	}
	return float64(raw) * scoreBasis / float64(w.Total())
}
