package logging

import (
	"go.uber.org/zap"
)

// Sink is the completion of the teacher's stubbed metadata vocabulary: a
// recorder with an actual emitting implementation behind it. No other
// component constructs a *zap.Logger directly; they all go through a Sink.
type Sink interface {
	RecordFetch(event FetchEvent)
	RecordError(record ErrorRecord)
	RecordArtifact(record ArtifactRecord)
	RecordFinalCrawlStats(stats CrawlStats)
}

// ZapSink is the production Sink, backed by a structured zap.Logger.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// NewProductionSink builds a ZapSink with the teacher's production config
// (JSON encoding, ISO8601 timestamps) at the given level.
func NewProductionSink(level zap.AtomicLevel) (*ZapSink, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapSink(logger), nil
}

func (s *ZapSink) RecordFetch(event FetchEvent) {
	s.logger.Info("fetch",
		zap.String("url", event.fetchUrl),
		zap.Int("status", event.httpStatus),
		zap.Duration("duration", event.duration),
		zap.String("content_type", event.contentType),
		zap.Int("retry_count", event.retryCount),
		zap.Int("depth", event.crawlDepth),
	)
}

func (s *ZapSink) RecordError(record ErrorRecord) {
	fields := make([]zap.Field, 0, len(record.attrs)+4)
	fields = append(fields,
		zap.String("package", record.packageName),
		zap.String("action", record.action),
		zap.String("cause", record.cause.String()),
		zap.Time("observed_at", record.observedAt),
	)
	for _, a := range record.attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	s.logger.Error(record.errorString, fields...)
}

func (s *ZapSink) RecordArtifact(record ArtifactRecord) {
	s.logger.Info("artifact written", zap.String("paths", record.paths))
}

func (s *ZapSink) RecordFinalCrawlStats(stats CrawlStats) {
	s.logger.Info("crawl terminated",
		zap.Int("total_pages", stats.TotalPages),
		zap.Int("total_errors", stats.TotalErrors),
		zap.Int("total_alerts", stats.TotalAlerts),
		zap.Int64("duration_ms", stats.DurationMs),
	)
}

// NopSink discards everything; used in tests that don't care about logging.
type NopSink struct{}

func (NopSink) RecordFetch(FetchEvent)             {}
func (NopSink) RecordError(ErrorRecord)            {}
func (NopSink) RecordArtifact(ArtifactRecord)      {}
func (NopSink) RecordFinalCrawlStats(CrawlStats)   {}
