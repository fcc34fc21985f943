package mbti

import (
	"math"
	"slices"
)

// Answer is a Likert response: 0 strongly disagree .. 4 strongly agree.
type Answer struct {
	QuestionID int  `json:"questionId"`
	Axis       Axis `json:"dimension,omitempty"`
	Score      int  `json:"score"`
}

// AxisTally holds the summed scores for both poles of an axis.
type AxisTally struct {
	Axis        Axis `json:"dimension"`
	FirstScore  int  `json:"firstScore"`
	SecondScore int  `json:"secondScore"`
}

// Letter returns the winning pole; ties go to the first pole.
func (t AxisTally) Letter() Pole {
	first, second := t.Axis.Poles()
	if t.FirstScore >= t.SecondScore {
		return first
	}
	return second
}

// Tallies is one AxisTally per axis in E/I, S/N, T/F, J/P order.
type Tallies [4]AxisTally

// Result is the outcome of scoring a set of answers.
type Result struct {
	Type    Type    `json:"mbtiType"`
	Tallies Tallies `json:"tallies"`
}

// Tally sums answer scores per axis. Answers that reference an unknown
// question contribute nothing. The question's own axis is used; the axis
// carried on the answer is ignored.
func Tally(answers []Answer) Tallies {
	var t Tallies
	for i, axis := range Axes {
		t[i].Axis = axis
	}

	for _, a := range answers {
		q, ok := Lookup(a.QuestionID)
		if !ok {
			continue
		}
		i := q.Axis.index()
		if q.Target.IsFirst() {
			t[i].FirstScore += a.Score
		} else {
			t[i].SecondScore += a.Score
		}
	}
	return t
}

// Score computes the result type and per-axis tallies. It never fails;
// callers decide whether the answer set is complete enough to show.
func Score(answers []Answer) Result {
	tallies := Tally(answers)
	code := make([]byte, 0, len(Axes))
	for _, t := range tallies {
		code = append(code, byte(t.Letter()))
	}
	return Result{Type: Type(code), Tallies: tallies}
}

// IsComplete reports whether every question has an answer.
func IsComplete(answers []Answer) bool {
	seen := make(map[int]struct{}, len(questions))
	for _, a := range answers {
		if _, ok := questionsByID[a.QuestionID]; ok {
			seen[a.QuestionID] = struct{}{}
		}
	}
	return len(seen) == len(questions)
}

// Percentage returns the share of t in stats, rounded to one decimal.
func Percentage(t Type, stats map[Type]int64) float64 {
	var total int64
	for _, n := range stats {
		total += n
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(stats[t])/float64(total)*1000) / 10
}

// AnswerSet collects answers keyed by question id; the last write wins.
type AnswerSet struct {
	byID map[int]Answer
}

// NewAnswerSet builds a set from answers in order.
func NewAnswerSet(answers ...Answer) *AnswerSet {
	s := &AnswerSet{byID: make(map[int]Answer, len(questions))}
	for _, a := range answers {
		s.Set(a)
	}
	return s
}

// Set records an answer, replacing any earlier one for the same question.
func (s *AnswerSet) Set(a Answer) {
	if s.byID == nil {
		s.byID = make(map[int]Answer, len(questions))
	}
	s.byID[a.QuestionID] = a
}

// Len returns the number of distinct questions answered.
func (s *AnswerSet) Len() int {
	return len(s.byID)
}

// Slice returns known-question answers in questionnaire order followed by
// unknown ids in ascending order.
func (s *AnswerSet) Slice() []Answer {
	out := make([]Answer, 0, len(s.byID))
	for _, q := range questions {
		if a, ok := s.byID[q.ID]; ok {
			out = append(out, a)
		}
	}
	var unknown []int
	for id := range s.byID {
		if _, ok := questionsByID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	for _, id := range unknown {
		out = append(out, s.byID[id])
	}
	return out
}
