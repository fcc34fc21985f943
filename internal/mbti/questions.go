package mbti

// Question is a single Likert item. Agreement favours Target.
type Question struct {
	ID     int    `json:"id"`
	Axis   Axis   `json:"dimension"`
	Target Pole   `json:"target"`
	Text   string `json:"text"`
}

var questions = []Question{
	{ID: 1, Axis: AxisEI, Target: 'E', Text: "Do you recharge by spending time with friends?"},
	{ID: 2, Axis: AxisEI, Target: 'I', Text: "Do you need time alone to feel like yourself?"},
	{ID: 3, Axis: AxisEI, Target: 'E', Text: "Do you start conversations with people you have just met?"},
	{ID: 4, Axis: AxisEI, Target: 'I', Text: "Do you prefer a deep talk with one person over a big party?"},
	{ID: 5, Axis: AxisEI, Target: 'E', Text: "Do you think out loud while working through a problem?"},

	{ID: 6, Axis: AxisSN, Target: 'S', Text: "Do you prefer concrete, practical information?"},
	{ID: 7, Axis: AxisSN, Target: 'N', Text: "Do you value imagination and possibilities?"},
	{ID: 8, Axis: AxisSN, Target: 'S', Text: "Do you focus on what is happening right now?"},
	{ID: 9, Axis: AxisSN, Target: 'N', Text: "Do you often notice patterns and hidden meanings?"},
	{ID: 10, Axis: AxisSN, Target: 'S', Text: "Do you trust experience more than theory?"},

	{ID: 11, Axis: AxisTF, Target: 'T', Text: "Do you put logic and principles first when deciding?"},
	{ID: 12, Axis: AxisTF, Target: 'F', Text: "Do you consider other people's feelings first?"},
	{ID: 13, Axis: AxisTF, Target: 'T', Text: "Are objective facts more important to you than emotions?"},
	{ID: 14, Axis: AxisTF, Target: 'F', Text: "Do you avoid criticism that could hurt someone?"},
	{ID: 15, Axis: AxisTF, Target: 'T', Text: "Do you enjoy debating ideas even when it gets heated?"},

	{ID: 16, Axis: AxisJP, Target: 'J', Text: "Do you like to plan ahead and follow a schedule?"},
	{ID: 17, Axis: AxisJP, Target: 'P', Text: "Do you prefer a spontaneous, flexible life?"},
	{ID: 18, Axis: AxisJP, Target: 'J', Text: "Do you finish tasks well before the deadline?"},
	{ID: 19, Axis: AxisJP, Target: 'P', Text: "Do you keep your options open rather than decide early?"},
	{ID: 20, Axis: AxisJP, Target: 'J', Text: "Do you feel uneasy when plans change at the last minute?"},
}

var questionsByID = func() map[int]Question {
	m := make(map[int]Question, len(questions))
	for _, q := range questions {
		m[q.ID] = q
	}
	return m
}()

// Questions returns a copy of the questionnaire in display order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// QuestionCount is the number of answers a complete test has.
func QuestionCount() int {
	return len(questions)
}

// Lookup returns the question with the given id.
func Lookup(id int) (Question, bool) {
	q, ok := questionsByID[id]
	return q, ok
}
