package mbti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answersFor gives every question the same score, flipping agreement for
// questions whose target is not in favour.
func answersFor(favour map[Axis]Pole) []Answer {
	answers := make([]Answer, 0, QuestionCount())
	for _, q := range Questions() {
		score := 0
		if q.Target == favour[q.Axis] {
			score = 4
		}
		answers = append(answers, Answer{QuestionID: q.ID, Axis: q.Axis, Score: score})
	}
	return answers
}

func uniform(score int) []Answer {
	answers := make([]Answer, 0, QuestionCount())
	for _, q := range Questions() {
		answers = append(answers, Answer{QuestionID: q.ID, Axis: q.Axis, Score: score})
	}
	return answers
}

func TestQuestionnaireShape(t *testing.T) {
	qs := Questions()
	require.Len(t, qs, 20)

	perAxis := map[Axis]int{}
	targets := map[Axis]map[Pole]bool{}
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		assert.NotEmpty(t, q.Text)
		first, second := q.Axis.Poles()
		assert.True(t, q.Target == first || q.Target == second, "question %d target %s", q.ID, q.Target)

		perAxis[q.Axis]++
		if targets[q.Axis] == nil {
			targets[q.Axis] = map[Pole]bool{}
		}
		targets[q.Axis][q.Target] = true
	}

	for _, axis := range Axes {
		assert.Equal(t, 5, perAxis[axis], axis)
		assert.Len(t, targets[axis], 2, "axis %s should mix targets", axis)
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	qs := Questions()
	qs[0].Text = "changed"

	q, ok := Lookup(1)
	require.True(t, ok)
	assert.NotEqual(t, "changed", q.Text)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []Answer
		want    Type
	}{
		{
			name:    "all neutral",
			answers: uniform(2),
			want:    "ESTJ",
		},
		{
			name:    "all zero ties resolve to first poles",
			answers: uniform(0),
			want:    "ESTJ",
		},
		{
			name:    "no answers",
			answers: nil,
			want:    "ESTJ",
		},
		{
			name:    "first pole extreme",
			answers: answersFor(map[Axis]Pole{AxisEI: 'E', AxisSN: 'S', AxisTF: 'T', AxisJP: 'J'}),
			want:    "ESTJ",
		},
		{
			name:    "second pole extreme",
			answers: answersFor(map[Axis]Pole{AxisEI: 'I', AxisSN: 'N', AxisTF: 'F', AxisJP: 'P'}),
			want:    "INFP",
		},
		{
			name:    "mixed",
			answers: answersFor(map[Axis]Pole{AxisEI: 'E', AxisSN: 'N', AxisTF: 'F', AxisJP: 'J'}),
			want:    "ENFJ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers)
			assert.Equal(t, tt.want, got.Type)
			assert.True(t, got.Type.Valid())
		})
	}
}

func TestTally(t *testing.T) {
	answers := []Answer{
		{QuestionID: 1, Score: 4},  // E
		{QuestionID: 2, Score: 1},  // I
		{QuestionID: 7, Score: 3},  // N
		{QuestionID: 11, Score: 2}, // T
		{QuestionID: 17, Score: 4}, // P
	}

	got := Tally(answers)

	assert.Equal(t, AxisTally{Axis: AxisEI, FirstScore: 4, SecondScore: 1}, got[0])
	assert.Equal(t, AxisTally{Axis: AxisSN, FirstScore: 0, SecondScore: 3}, got[1])
	assert.Equal(t, AxisTally{Axis: AxisTF, FirstScore: 2, SecondScore: 0}, got[2])
	assert.Equal(t, AxisTally{Axis: AxisJP, FirstScore: 0, SecondScore: 4}, got[3])
	assert.Equal(t, Type("ENTP"), Score(answers).Type)
}

func TestTallyUsesQuestionAxis(t *testing.T) {
	// The axis on the answer is client-supplied and not trusted.
	got := Tally([]Answer{{QuestionID: 1, Axis: AxisJP, Score: 4}})
	assert.Equal(t, 4, got[0].FirstScore)
	assert.Zero(t, got[3].FirstScore)
}

func TestScoreIgnoresUnknownQuestions(t *testing.T) {
	base := answersFor(map[Axis]Pole{AxisEI: 'I', AxisSN: 'S', AxisTF: 'F', AxisJP: 'J'})
	want := Score(base)

	extra := append(append([]Answer{}, base...),
		Answer{QuestionID: 0, Score: 4},
		Answer{QuestionID: 21, Score: 4},
		Answer{QuestionID: -3, Axis: AxisEI, Score: 4},
	)

	assert.Equal(t, want, Score(extra))
}

func TestScoreIsDeterministic(t *testing.T) {
	answers := answersFor(map[Axis]Pole{AxisEI: 'E', AxisSN: 'N', AxisTF: 'T', AxisJP: 'P'})
	first := Score(answers)
	for range 10 {
		assert.Equal(t, first, Score(answers))
	}
}

func TestIsComplete(t *testing.T) {
	full := uniform(3)
	assert.True(t, IsComplete(full))
	assert.False(t, IsComplete(full[:19]))
	assert.False(t, IsComplete(nil))

	// Duplicates do not make up for a missing answer.
	dup := append(append([]Answer{}, full[:19]...), full[0])
	assert.False(t, IsComplete(dup))

	withUnknown := append(append([]Answer{}, full[:19]...), Answer{QuestionID: 99, Score: 4})
	assert.False(t, IsComplete(withUnknown))
}

func TestAnswerSetLastWriteWins(t *testing.T) {
	set := NewAnswerSet(
		Answer{QuestionID: 3, Score: 1},
		Answer{QuestionID: 1, Score: 0},
		Answer{QuestionID: 42, Score: 2},
		Answer{QuestionID: 3, Score: 4},
	)

	require.Equal(t, 3, set.Len())
	assert.Equal(t, []Answer{
		{QuestionID: 1, Score: 0},
		{QuestionID: 3, Score: 4},
		{QuestionID: 42, Score: 2},
	}, set.Slice())

	var zero AnswerSet
	zero.Set(Answer{QuestionID: 5, Score: 2})
	assert.Equal(t, 1, zero.Len())
}

func TestParseType(t *testing.T) {
	for _, code := range AllTypes() {
		got, ok := ParseType(string(code))
		assert.True(t, ok, code)
		assert.Equal(t, code, got)
	}

	for _, bad := range []string{"", "INF", "INFPX", "infp", " INFP ", "INFP\n", "XNFP", "IXFP", "EEEE", "ABCD"} {
		_, ok := ParseType(bad)
		assert.False(t, ok, bad)
	}
}

func TestAllTypes(t *testing.T) {
	types := AllTypes()
	require.Len(t, types, 16)

	seen := map[Type]bool{}
	for _, code := range types {
		assert.True(t, code.Valid(), code)
		seen[code] = true
	}
	assert.Len(t, seen, 16)
}

func TestPercentage(t *testing.T) {
	stats := map[Type]int64{"INFP": 1, "ENFP": 2}
	assert.InDelta(t, 33.3, Percentage("INFP", stats), 0.0001)
	assert.InDelta(t, 66.7, Percentage("ENFP", stats), 0.0001)
	assert.Zero(t, Percentage("ISTJ", stats))
	assert.Zero(t, Percentage("INFP", map[Type]int64{}))
}
