// Package main provides the quizgen CLI for generating quizzes and single
// questions from the command line, printing the normalized result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"hirequiz/internal/config"
	"hirequiz/internal/models"
	"hirequiz/internal/observability"
	"hirequiz/internal/services"
	contextutils "hirequiz/internal/utils"
	"hirequiz/internal/version"

	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	logger  *observability.Logger
	service *services.AIQuizService
)

// position flags shared by both commands
var (
	flagPosition    string
	flagLevel       string
	flagSkills      string
	flagDescription string
	flagQuizTitle   string
	flagModel       string
	flagLocale      string
	flagOutput      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quizgen",
		Short: "Generate recruiting quiz questions with AI",
		Long: `quizgen generates technical screening quizzes and single questions
for a job position using the configured completion providers, and prints the
normalized result as JSON.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&flagPosition, "position", "", "position title (required)")
	rootCmd.PersistentFlags().StringVar(&flagLevel, "level", "mid", "experience level (junior, mid, senior)")
	rootCmd.PersistentFlags().StringVar(&flagSkills, "skills", "", "comma-separated skill list (required)")
	rootCmd.PersistentFlags().StringVar(&flagDescription, "description", "", "position description")
	rootCmd.PersistentFlags().StringVar(&flagQuizTitle, "title", "Technical Screening", "quiz title")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "explicit model override")
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "content locale override (it, en, es, fr, de)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "write JSON to file instead of stdout")

	rootCmd.AddCommand(newQuizCmd())
	rootCmd.AddCommand(newQuestionCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads configuration and wires the generation service. OTLP exporters
// are disabled so the CLI never stalls on a missing collector.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	cfg, err = config.NewConfig()
	if err != nil {
		return contextutils.WrapError(err, "failed to load configuration")
	}

	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false
	cfg.Server.LogLevel = "error"

	_, _, logger, err = observability.SetupObservability(&cfg.OpenTelemetry, "quizgen")
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize observability")
	}

	if flagLocale != "" {
		cfg.Generation.Locale = string(contextutils.ParseLocale(flagLocale))
	}

	client := services.NewHTTPCompletionClient(cfg, logger)
	service, err = services.NewAIQuizService(cfg, client, logger)
	if err != nil {
		return contextutils.WrapError(err, "failed to create generation service")
	}

	return nil
}

func newQuizCmd() *cobra.Command {
	var (
		flagCount        int
		flagDifficulty   int
		flagTypes        string
		flagInstructions string
	)

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate a full quiz",
		RunE: func(_ *cobra.Command, _ []string) error {
			params := &models.GenerateQuizParams{
				Position:      positionFromFlags(),
				QuizTitle:     flagQuizTitle,
				QuestionCount: flagCount,
				Difficulty:    flagDifficulty,
				Instructions:  flagInstructions,
				SpecificModel: flagModel,
			}
			applyTypeFlags(params, flagTypes)

			result, err := service.GenerateQuiz(context.Background(), "quizgen-cli", params)
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}

	cmd.Flags().IntVar(&flagCount, "count", config.DefaultQuestionCount, "number of questions")
	cmd.Flags().IntVar(&flagDifficulty, "difficulty", 3, "difficulty 1 (introductory) to 5 (expert)")
	cmd.Flags().StringVar(&flagTypes, "types", "", "comma-separated question types (default: all)")
	cmd.Flags().StringVar(&flagInstructions, "instructions", "", "special generation instructions")

	return cmd
}

func newQuestionCmd() *cobra.Command {
	var (
		flagType       string
		flagIndex      int
		flagDifficulty int
	)

	cmd := &cobra.Command{
		Use:   "question",
		Short: "Generate a single question",
		RunE: func(_ *cobra.Command, _ []string) error {
			params := &models.GenerateQuestionParams{
				Position:      positionFromFlags(),
				QuizTitle:     flagQuizTitle,
				QuestionType:  models.QuestionType(flagType),
				QuestionIndex: flagIndex,
				Difficulty:    flagDifficulty,
				SpecificModel: flagModel,
			}

			question, err := service.GenerateQuestion(context.Background(), "quizgen-cli", params)
			if err != nil {
				return err
			}
			return writeJSON(question)
		},
	}

	cmd.Flags().StringVar(&flagType, "type", string(models.OpenQuestion), "question type")
	cmd.Flags().IntVar(&flagIndex, "index", 1, "1-based question index, determines the question ID")
	cmd.Flags().IntVar(&flagDifficulty, "difficulty", 0, "difficulty 1-5, 0 leaves it to the model")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("quizgen %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildTime)
		},
	}
}

func positionFromFlags() models.PositionContext {
	var skills []string
	for _, s := range strings.Split(flagSkills, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}

	return models.PositionContext{
		Title:           flagPosition,
		ExperienceLevel: flagLevel,
		Skills:          skills,
		Description:     flagDescription,
	}
}

// applyTypeFlags enables the requested question types, defaulting to all.
func applyTypeFlags(params *models.GenerateQuizParams, types string) {
	if strings.TrimSpace(types) == "" {
		params.IncludeMultipleChoice = true
		params.IncludeOpenQuestions = true
		params.IncludeCodeSnippets = true
		return
	}

	for _, t := range strings.Split(types, ",") {
		switch models.QuestionType(strings.TrimSpace(t)) {
		case models.MultipleChoice:
			params.IncludeMultipleChoice = true
		case models.OpenQuestion:
			params.IncludeOpenQuestions = true
		case models.CodeSnippet:
			params.IncludeCodeSnippets = true
		}
	}
}

func writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal result")
	}

	if flagOutput != "" {
		return os.WriteFile(flagOutput, append(data, '\n'), 0o600)
	}

	fmt.Println(string(data))
	return nil
}
