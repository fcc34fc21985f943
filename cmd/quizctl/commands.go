package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
	"github.com/prperemyshlev/mbti-quiz/pkg/quizclient"
)

type rootOptions struct {
	baseURL    string
	retries    int
	retryDelay time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "quizctl",
		Short:        "Command line client for the MBTI quiz API",
		SilenceUsage: true,
	}

	baseURL := os.Getenv("QUIZ_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", baseURL, "API base URL")
	cmd.PersistentFlags().IntVar(&opts.retries, "retries", quizclient.DefaultRetries, "extra attempts for failed reads")
	cmd.PersistentFlags().DurationVar(&opts.retryDelay, "retry-delay", quizclient.DefaultRetryDelay, "pause between attempts")

	cmd.AddCommand(
		newQuestionsCmd(opts),
		newScoreCmd(opts),
		newSubmitCmd(opts),
		newStatsCmd(opts),
		newProfileCmd(opts),
	)
	return cmd
}

func (o *rootOptions) client() (*quizclient.Client, error) {
	return quizclient.New(o.baseURL, quizclient.WithRetry(o.retries, o.retryDelay))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newQuestionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List the questionnaire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			questions, err := c.Questions(cmd.Context())
			if err != nil {
				return err
			}
			for _, q := range questions {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d [%s] %s\n", q.ID, q.Axis, q.Text)
			}
			return nil
		},
	}
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var (
		answers string
		local   bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answer sheet such as 1=4,2=0,...",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}

			if local {
				if !mbti.IsComplete(parsed) {
					return fmt.Errorf("all %d questions must be answered", mbti.QuestionCount())
				}
				return printJSON(cmd, mbti.Score(parsed))
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			result, err := c.Score(cmd.Context(), parsed)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&answers, "answers", "", "comma separated questionId=score pairs")
	cmd.Flags().BoolVar(&local, "local", false, "score without calling the API")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit TYPE",
		Short: "Record a finished test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := mbti.ParseType(args[0])
			if !ok {
				return fmt.Errorf("invalid type %q", args[0])
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			total, err := c.Submit(cmd.Context(), t, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s, %d tests in total\n", t, total)
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how often each type was submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			stats, err := c.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range mbti.AllTypes() {
				fmt.Fprintf(out, "%s %6d %5.1f%%\n", t, stats.Stats[t], mbti.Percentage(t, stats.Stats))
			}
			fmt.Fprintf(out, "total %d\n", stats.Total)
			return nil
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Log in and fetch the protected profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if _, err := c.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			user, err := c.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("QUIZ_PASSWORD"), "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// parseAnswers reads "1=4,2=0" style input
func parseAnswers(s string) ([]mbti.Answer, error) {
	set := mbti.NewAnswerSet()
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idStr, scoreStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("answer %q is not questionId=score", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("answer %q: bad question id: %w", pair, err)
		}
		score, err := strconv.Atoi(strings.TrimSpace(scoreStr))
		if err != nil || score < 0 || score > 4 {
			return nil, fmt.Errorf("answer %q: score must be 0..4", pair)
		}
		set.Set(mbti.Answer{QuestionID: id, Score: score})
	}
	return set.Slice(), nil
}
