package workshop

// Category is one of the five 5F question dimensions.
type Category string

const (
	Fact    Category = "fact"
	Feeling Category = "feeling"
	Finding Category = "finding"
	Future  Category = "future"
	Focus   Category = "focus"
)

// Categories lists the 5F dimensions in display order.
var Categories = []Category{Fact, Feeling, Finding, Future, Focus}

var categoryLabels = map[Category]string{
	Fact:    "事实类",
	Feeling: "感受类",
	Finding: "分析类",
	Future:  "行动类",
	Focus:   "聚焦类",
}

// Label returns the display label, or "" for an unknown category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Valid reports whether c is one of the 5F dimensions.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// RadarData is the per-dimension tally of adopted questions.
type RadarData struct {
	Fact    int `json:"fact"`
	Feeling int `json:"feeling"`
	Finding int `json:"finding"`
	Future  int `json:"future"`
	Focus   int `json:"focus"`
}

// Get returns the tally for c.
func (r RadarData) Get(c Category) int {
	switch c {
	case Fact:
		return r.Fact
	case Feeling:
		return r.Feeling
	case Finding:
		return r.Finding
	case Future:
		return r.Future
	case Focus:
		return r.Focus
	}
	return 0
}

func (r *RadarData) inc(c Category) {
	switch c {
	case Fact:
		r.Fact++
	case Feeling:
		r.Feeling++
	case Finding:
		r.Finding++
	case Future:
		r.Future++
	case Focus:
		r.Focus++
	}
}

// Missing returns the dimensions whose tally is below threshold, in display
// order.
func (r RadarData) Missing(threshold int) []Category {
	var out []Category
	for _, c := range Categories {
		if r.Get(c) < threshold {
			out = append(out, c)
		}
	}
	return out
}

// Tally counts the questions that have not been explicitly rejected.
func Tally(questions []Question) RadarData {
	var r RadarData
	for _, q := range questions {
		if q.Adopted != nil && !*q.Adopted {
			continue
		}
		r.inc(q.Category)
	}
	return r
}
