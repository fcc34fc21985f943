package dto

import (
	"time"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SubmitResultRequest records a finished test
type SubmitResultRequest struct {
	MBTIType string        `json:"mbtiType"`
	Answers  []mbti.Answer `json:"answers,omitempty"`
}

// ScoreRequest asks the server to score a full answer sheet
type ScoreRequest struct {
	Answers []mbti.Answer `json:"answers"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID           string  `json:"id"`
	Email        *string `json:"email"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
}

// NewUserInfo converts a domain user to its public view
func NewUserInfo(u *domain.User) *UserInfo {
	if u == nil {
		return nil
	}
	return &UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Nickname:     u.Nickname,
		ProfileImage: u.ProfileImage,
	}
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User    *UserInfo `json:"user"`
	Message string    `json:"message"`
}

// MeResponse carries the current user, or null when not signed in
type MeResponse struct {
	User *UserInfo `json:"user"`
}

// SubmitResultResponse is returned after a result is recorded
type SubmitResultResponse struct {
	Success    bool  `json:"success"`
	TotalTests int64 `json:"totalTests"`
}

// StatisticsResponse holds per-type counts
type StatisticsResponse struct {
	Stats       map[mbti.Type]int64 `json:"stats"`
	Total       int64               `json:"total"`
	LastUpdated *time.Time          `json:"lastUpdated"`
}

// ScoreResponse is the scored answer sheet
type ScoreResponse struct {
	MBTIType   mbti.Type    `json:"mbtiType"`
	Tallies    mbti.Tallies `json:"tallies"`
	Percentage float64      `json:"percentage"`
}

// QuestionsResponse lists the questionnaire
type QuestionsResponse struct {
	Questions []mbti.Question `json:"questions"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
