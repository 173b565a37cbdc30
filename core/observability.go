package core

import (
	"context"
	"sort"
	"time"
)

func (s *Service) observeOperation(ctx context.Context, operation string, tags map[string]string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metricTags := cloneTags(tags)
	metricTags["operation"] = operation
	if err != nil {
		metricTags["outcome"] = "error"
	} else {
		metricTags["outcome"] = "success"
	}

	s.metrics.IncCounter(ctx, "accounts_operation_total", 1, metricTags)
	s.metrics.ObserveHistogram(ctx, "accounts_operation_duration_seconds", elapsed.Seconds(), metricTags)

	fields := map[string]any{
		"operation":   operation,
		"duration_ms": elapsed.Milliseconds(),
	}
	for key, value := range tags {
		fields[key] = value
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logError("account operation failed", fields)
		return err
	}
	s.logDebug("account operation completed", fields)
	return nil
}

func (s *Service) logDebug(msg string, fields map[string]any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, flattenFields(fields)...)
}

func (s *Service) logInfo(msg string, fields map[string]any) {
	if s.logger == nil {
		return
	}
	s.logger.Info(msg, flattenFields(fields)...)
}

func (s *Service) logError(msg string, fields map[string]any) {
	if s.logger == nil {
		return
	}
	s.logger.Error(msg, flattenFields(fields)...)
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	flat := make([]any, 0, len(fields)*2)
	for _, key := range keys {
		flat = append(flat, key, fields[key])
	}
	return flat
}
