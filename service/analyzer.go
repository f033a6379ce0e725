package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"call-insights/constant"
	"call-insights/entities"
)

// AnalysisResult is what an analysis backend produces for one call.
type AnalysisResult struct {
	Transcription string
	Sentiment     *constant.Sentiment
	Keywords      entities.KeywordGroups
	Summary       string
}

// Analyzer is the integration point where a real speech/NLP pipeline plugs
// in. The default implementation fabricates results.
type Analyzer interface {
	Analyze(ctx context.Context, record *entities.CallRecord) (AnalysisResult, error)
}

type simulatedAnalyzer struct {
	minDelay time.Duration
	maxDelay time.Duration
}

func NewSimulatedAnalyzer() Analyzer {
	return &simulatedAnalyzer{
		minDelay: 500 * time.Millisecond,
		maxDelay: 2 * time.Second,
	}
}

func (a *simulatedAnalyzer) Analyze(ctx context.Context, record *entities.CallRecord) (AnalysisResult, error) {
	delay := a.minDelay + time.Duration(rand.Int63n(int64(a.maxDelay-a.minDelay)))
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return AnalysisResult{}, ctx.Err()
	}

	sentiment := constant.Sentiments[rand.Intn(len(constant.Sentiments))]
	return AnalysisResult{
		Transcription: fmt.Sprintf("Simulated transcription for %s", record.CallID),
		Sentiment:     &sentiment,
		Keywords:      entities.KeywordGroups{"topics": {"support", "billing", "upgrade"}},
		Summary:       "Simulated summary of the call.",
	}, nil
}
