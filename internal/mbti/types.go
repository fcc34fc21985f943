package mbti

// Axis is one of the four binary MBTI dimensions.
type Axis string

const (
	AxisEI Axis = "E/I"
	AxisSN Axis = "S/N"
	AxisTF Axis = "T/F"
	AxisJP Axis = "J/P"
)

// Axes lists the dimensions in the order their letters appear in a type code.
var Axes = [4]Axis{AxisEI, AxisSN, AxisTF, AxisJP}

// Poles returns the first (E, S, T, J) and second (I, N, F, P) letter of the axis.
func (a Axis) Poles() (first, second Pole) {
	switch a {
	case AxisEI:
		return 'E', 'I'
	case AxisSN:
		return 'S', 'N'
	case AxisTF:
		return 'T', 'F'
	case AxisJP:
		return 'J', 'P'
	}
	return 0, 0
}

func (a Axis) index() int {
	for i, axis := range Axes {
		if axis == a {
			return i
		}
	}
	return -1
}

// Pole is a single letter of an axis.
type Pole byte

// IsFirst reports whether the pole is the first-listed letter of its axis.
func (p Pole) IsFirst() bool {
	switch p {
	case 'E', 'S', 'T', 'J':
		return true
	}
	return false
}

func (p Pole) String() string {
	return string(rune(p))
}

// MarshalText encodes the pole as its letter.
func (p Pole) MarshalText() ([]byte, error) {
	return []byte{byte(p)}, nil
}

// Type is a four-letter result code such as "INFP".
type Type string

var allTypes = []Type{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

// AllTypes returns the 16 valid codes in a fixed order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is one of the 16 codes.
func (t Type) Valid() bool {
	if len(t) != 4 {
		return false
	}
	for i, axis := range Axes {
		first, second := axis.Poles()
		if p := Pole(t[i]); p != first && p != second {
			return false
		}
	}
	return true
}

// ParseType validates a code exactly as given. Lowercase or padded input is
// rejected.
func ParseType(code string) (Type, bool) {
	t := Type(code)
	if !t.Valid() {
		return "", false
	}
	return t, true
}
