package scoring

import "math"

// PartialCreditCurve maps the gap between a student's normalized value and a
// program's normalized requirement to a credit in [Floor, 1].
//
// At the requirement the credit is MeetCredit. Above it, credit rises linearly
// and reaches 1 once the student exceeds the requirement by Headroom. Below it,
// credit decays linearly by Slope per unit of shortfall and never drops under Floor.
type PartialCreditCurve struct {
	MeetCredit float64 `json:"meetCredit"`
	Headroom   float64 `json:"headroom"`
	Slope      float64 `json:"slope"`
	Floor      float64 `json:"floor"`
}

var DefaultCurve = PartialCreditCurve{
	MeetCredit: 0.8,
	Headroom:   0.1,
	Slope:      2.0,
	Floor:      0.2,
}

func (c PartialCreditCurve) Credit(student, required float64) float64 {
	gap := student - required
	if gap >= 0 {
		if c.Headroom <= 0 {
			return 1
		}
		return math.Min(1, c.MeetCredit+(1-c.MeetCredit)*gap/c.Headroom)
	}
	return clamp(c.MeetCredit+c.Slope*gap, c.Floor, c.MeetCredit)
}

func (c PartialCreditCurve) valid() bool {
	return c.MeetCredit > 0 && c.MeetCredit <= 1 &&
		c.Floor >= 0 && c.Floor <= c.MeetCredit &&
		c.Slope >= 0 && c.Headroom >= 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
