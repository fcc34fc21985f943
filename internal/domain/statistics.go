package domain

import (
	"time"

	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
)

// Statistics is a snapshot of how many results of each type were submitted
type Statistics struct {
	Counts      map[mbti.Type]int64
	Total       int64
	LastUpdated *time.Time
}
