package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibbank/profileguard/internal/application/dto"
	"github.com/bibbank/profileguard/internal/application/usecase"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/infrastructure/config"
	"github.com/bibbank/profileguard/internal/infrastructure/llm"
	"github.com/bibbank/profileguard/internal/infrastructure/ml"
	"github.com/bibbank/profileguard/internal/infrastructure/observability"
)

type scoreFlags struct {
	file     string
	artifact string
	policy   string
	quick    bool
	verbose  bool
}

func newScoreCmd() *cobra.Command {
	var flags scoreFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a feature payload read from a file or stdin",
		Long: "Score reads a JSON feature payload, the same body accepted by POST /api/v1/predict,\n" +
			"and prints the assessment. The LLM analysis runs only when LLM_API_KEY or\n" +
			"GEMINI_API_KEY is set and --quick is not given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "-", "payload file, or - for stdin")
	f.StringVar(&flags.artifact, "artifact", "models/classifier.json", "classifier artifact path; empty scores with rules only")
	f.StringVar(&flags.policy, "policy", "", "scoring policy YAML file")
	f.BoolVar(&flags.quick, "quick", false, "skip the qualitative analysis")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log scoring stages to stderr")
	return cmd
}

func runScore(cmd *cobra.Command, flags scoreFlags) error {
	level := "error"
	if flags.verbose {
		level = "debug"
	}
	logger := observability.InitLogger(observability.LogConfig{
		Output: cmd.ErrOrStderr(),
		Level:  level,
		Format: "text",
	})

	payload, err := readPayload(cmd.InOrStdin(), flags.file)
	if err != nil {
		return err
	}

	policy, err := config.LoadScoringPolicy(flags.policy)
	if err != nil {
		return err
	}

	classifier, err := ml.LoadArtifactClassifier(flags.artifact, logger)
	if err != nil {
		return err
	}

	var analyzer port.QualitativeAnalyzer
	if key := apiKeyFromEnv(); key != "" && !flags.quick {
		analyzer = llm.NewGeminiAnalyzer(llm.Config{
			BaseURL: os.Getenv("LLM_BASE_URL"),
			Model:   os.Getenv("LLM_MODEL"),
			APIKey:  key,
		}, logger)
	}

	scorer, err := service.NewHybridScorer(
		service.NewRuleExtractor(),
		service.NewTextScanner(service.DefaultSuspiciousPhrases),
		classifier,
		analyzer,
		policy,
		logger,
	)
	if err != nil {
		return err
	}

	uc := usecase.NewAssessAccount(scorer, nil, nil, nil, model.DefaultFeatureLimits(), logger)
	resp, err := uc.Execute(cmd.Context(), dto.AssessAccountRequest{Payload: payload, Quick: flags.quick})
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func readPayload(stdin io.Reader, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" || path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("parse payload: expected a JSON object")
	}
	return payload, nil
}

func apiKeyFromEnv() string {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}
