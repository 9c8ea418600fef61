package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const legalSystemPrompt = "You are an experienced legal analyst assisting attorneys. Answer precisely, cite authorities where possible and respond only with the JSON requested."

// completeJSON runs one model call and decodes the reply into dest. Transport
// failures are returned as AI_UNAVAILABLE. A reply that does not decode is
// logged and reported through parsed=false so callers can substitute a
// fallback.
func completeJSON(ctx context.Context, completer ai.Completer, logger *zap.Logger, req ai.CompletionRequest, dest interface{}) (parsed bool, err error) {
	text, err := completer.Complete(ctx, req)
	if err != nil {
		logger.Error("ai call failed", zap.String("operation", req.Operation), zap.Error(err))
		return false, appErrors.WrapAs(appErrors.ErrAIUnavailable, err, "")
	}
	if err := ai.DecodeJSON(text, dest); err != nil {
		logger.Warn("ai reply not parseable",
			zap.String("operation", req.Operation),
			zap.Int("length", len(text)),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func bulletList(values []string) string {
	if len(values) == 0 {
		return "- none provided"
	}
	return "- " + strings.Join(values, "\n- ")
}

func orUnspecified(v string) string {
	if v == "" {
		return "unspecified"
	}
	return v
}
