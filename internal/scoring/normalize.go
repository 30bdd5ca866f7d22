package scoring

import "strings"

const (
	ieltsMax = 9.0
	toeflMax = 120.0
)

// Max returns the top of the scale, or 0 for an unknown scale.
func (s GPAScale) Max() float64 {
	switch s {
	case GPAScale4:
		return 4.0
	case GPAScale5:
		return 5.0
	case GPAScale100:
		return 100
	default:
		return 0
	}
}

func (s GPAScale) Valid() bool {
	return s.Max() > 0
}

// NormalizeGPA converts a GPA to a 0..1 fraction of its scale. ok is false for an unknown scale.
func NormalizeGPA(gpa float64, scale GPAScale) (float64, bool) {
	max := scale.Max()
	if max == 0 {
		return 0, false
	}
	return clamp(gpa/max, 0, 1), true
}

func (t EnglishTest) Max() float64 {
	switch t {
	case EnglishTestIELTS:
		return ieltsMax
	case EnglishTestTOEFL:
		return toeflMax
	default:
		return 0
	}
}

func (t EnglishTest) Valid() bool {
	return t.Max() > 0
}

// standardizedTest describes one admissions test the tests component understands.
type standardizedTest struct {
	name     string
	max      float64
	graduate bool
	score    func(StudentProfile) *float64
	minimum  func(ProgramRequirements) *float64
	average  func(AdmissionStat) *float64
	setScore func(*StudentProfile, float64)
}

var standardizedTests = []standardizedTest{
	{
		name:     "SAT",
		max:      1600,
		score:    func(p StudentProfile) *float64 { return p.SAT },
		minimum:  func(r ProgramRequirements) *float64 { return r.MinSAT },
		average:  func(s AdmissionStat) *float64 { return s.AvgSAT },
		setScore: func(p *StudentProfile, v float64) { p.SAT = &v },
	},
	{
		name:     "ACT",
		max:      36,
		score:    func(p StudentProfile) *float64 { return p.ACT },
		minimum:  func(r ProgramRequirements) *float64 { return r.MinACT },
		average:  func(s AdmissionStat) *float64 { return s.AvgACT },
		setScore: func(p *StudentProfile, v float64) { p.ACT = &v },
	},
	{
		name:     "GRE",
		max:      340,
		graduate: true,
		score:    func(p StudentProfile) *float64 { return p.GRE },
		minimum:  func(r ProgramRequirements) *float64 { return r.MinGRE },
		average:  func(s AdmissionStat) *float64 { return s.AvgGRE },
		setScore: func(p *StudentProfile, v float64) { p.GRE = &v },
	},
	{
		name:     "GMAT",
		max:      800,
		graduate: true,
		score:    func(p StudentProfile) *float64 { return p.GMAT },
		minimum:  func(r ProgramRequirements) *float64 { return r.MinGMAT },
		average:  func(s AdmissionStat) *float64 { return s.AvgGMAT },
		setScore: func(p *StudentProfile, v float64) { p.GMAT = &v },
	},
}

type degreeKind int

const (
	degreeUnknown degreeKind = iota
	degreeUndergraduate
	degreeGraduate
)

func classifyDegree(level string) degreeKind {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "bachelor", "bachelors", "undergraduate", "foundation", "associate":
		return degreeUndergraduate
	case "master", "masters", "mba", "phd", "doctorate", "graduate", "postgraduate":
		return degreeGraduate
	default:
		return degreeUnknown
	}
}

// relevantTests returns the tests that count toward the tests component for a degree level.
func relevantTests(level string) []standardizedTest {
	kind := classifyDegree(level)
	if kind == degreeUnknown {
		return standardizedTests
	}
	tests := make([]standardizedTest, 0, 2)
	for _, t := range standardizedTests {
		if t.graduate == (kind == degreeGraduate) {
			tests = append(tests, t)
		}
	}
	return tests
}
