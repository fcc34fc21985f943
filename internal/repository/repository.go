package repository

import (
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	Credential    CredentialRepository
	SocialAccount SocialAccountRepository
	Statistics    StatisticsRepository
}

// NewRepositories creates all repositories. When redis is nil statistics are
// kept in process memory.
func NewRepositories(db *database.Postgres, redis *database.Redis) *Repositories {
	repos := &Repositories{
		User:          NewUserRepository(db),
		Credential:    NewCredentialRepository(db),
		SocialAccount: NewSocialAccountRepository(db),
	}

	if redis != nil {
		repos.Statistics = NewRedisStatisticsRepository(redis)
	} else {
		repos.Statistics = NewMemoryStatisticsRepository()
	}

	return repos
}
