package main

import (
	"os"

	"github.com/prperemyshlev/mbti-quiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
