package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldPlatform is the structured log field key for the job board name.
	FieldPlatform = "platform"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldCycle is the structured log field key for a search cycle id.
	FieldCycle = "cycle_id"
	// FieldJob is the structured log field key for a platform:id listing key.
	FieldJob = "job"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// WithPlatform attaches the platform field to the provided logger.
func WithPlatform(logger *zap.Logger, platform string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldPlatform, Value: platform})...)
}
