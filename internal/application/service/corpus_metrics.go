package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names of the challenge corpus.
const (
	FilesScannedCounterName        = "corpus_files_scanned_total"
	BlocksExtractedCounterName     = "corpus_blocks_extracted_total"
	BlocksAcceptedCounterName      = "corpus_blocks_accepted_total"
	BlocksRejectedCounterName      = "corpus_blocks_rejected_total"
	ChallengesPersistedCounterName = "corpus_challenges_persisted_total"
	ChallengesDroppedCounterName   = "corpus_challenges_dropped_total"
	BatchFallbacksCounterName      = "corpus_batch_fallbacks_total"
	PopulationsCounterName         = "corpus_populations_total"
	PopulationDurationName         = "corpus_population_duration_seconds"
)

// Attribute keys.
const (
	AttrLanguage = "language"
	AttrReason   = "reason"
	AttrResult   = "result"
	AttrSource   = "source"
)

const corpusMeterName = "snippetcorpus/corpus"

// getPopulationBuckets covers a cold population from a small checkout (50ms) up to a
// large repository pool (2min).
func getPopulationBuckets() []float64 {
	return []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
}

// CorpusMetrics records extraction, validation and persistence of challenges.
// A nil *CorpusMetrics is valid and records nothing.
type CorpusMetrics struct {
	filesScanned        metric.Int64Counter
	blocksExtracted     metric.Int64Counter
	blocksAccepted      metric.Int64Counter
	blocksRejected      metric.Int64Counter
	challengesPersisted metric.Int64Counter
	challengesDropped   metric.Int64Counter
	batchFallbacks      metric.Int64Counter
	populations         metric.Int64Counter
	populationDuration  metric.Float64Histogram
}

// NewCorpusMetrics creates the corpus instruments on meter, or on the global meter
// provider when meter is nil.
func NewCorpusMetrics(meter metric.Meter) (*CorpusMetrics, error) {
	if meter == nil {
		meter = otel.Meter(corpusMeterName)
	}

	counters := []struct {
		name        string
		description string
	}{
		{FilesScannedCounterName, "Source files read from the repository pool"},
		{BlocksExtractedCounterName, "Candidate blocks produced by the extractor"},
		{BlocksAcceptedCounterName, "Candidate blocks accepted by the validator"},
		{BlocksRejectedCounterName, "Candidate blocks rejected by the validator"},
		{ChallengesPersistedCounterName, "Challenges written to the store"},
		{ChallengesDroppedCounterName, "Challenges that failed to persist"},
		{BatchFallbacksCounterName, "Sub-batches retried record by record"},
		{PopulationsCounterName, "Cold populations from the repository pool"},
	}

	m := &CorpusMetrics{}
	targets := []*metric.Int64Counter{
		&m.filesScanned,
		&m.blocksExtracted,
		&m.blocksAccepted,
		&m.blocksRejected,
		&m.challengesPersisted,
		&m.challengesDropped,
		&m.batchFallbacks,
		&m.populations,
	}
	for i, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit("1"))
		if err != nil {
			return nil, err
		}
		*targets[i] = counter
	}

	histogram, err := meter.Float64Histogram(
		PopulationDurationName,
		metric.WithDescription("Duration of cold populations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(getPopulationBuckets()...),
	)
	if err != nil {
		return nil, err
	}
	m.populationDuration = histogram
	return m, nil
}

func languageAttr(language string) metric.MeasurementOption {
	if language == "" {
		language = "any"
	}
	return metric.WithAttributes(attribute.String(AttrLanguage, language))
}

// RecordFilesScanned counts files read for language.
func (m *CorpusMetrics) RecordFilesScanned(ctx context.Context, language string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.filesScanned.Add(ctx, int64(n), languageAttr(language))
}

// RecordBlocksAccepted counts blocks that passed validation. Each also counts as extracted.
func (m *CorpusMetrics) RecordBlocksAccepted(ctx context.Context, language string, accepted int) {
	if m == nil {
		return
	}
	m.blocksExtracted.Add(ctx, int64(accepted), languageAttr(language))
	m.blocksAccepted.Add(ctx, int64(accepted), languageAttr(language))
}

// RecordBlockRejected counts one rejected block by reason. It also counts as extracted.
func (m *CorpusMetrics) RecordBlockRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.blocksExtracted.Add(ctx, 1)
	m.blocksRejected.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

// RecordUpsert counts the outcome of one upsert run.
func (m *CorpusMetrics) RecordUpsert(ctx context.Context, source string, persisted, dropped, fallbacks int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrSource, source))
	m.challengesPersisted.Add(ctx, int64(persisted), attrs)
	m.challengesDropped.Add(ctx, int64(dropped), attrs)
	m.batchFallbacks.Add(ctx, int64(fallbacks), attrs)
}

// RecordPopulation records a cold population and its duration.
func (m *CorpusMetrics) RecordPopulation(ctx context.Context, language string, duration time.Duration, produced int) {
	if m == nil {
		return
	}
	result := "empty"
	if produced > 0 {
		result = "populated"
	}
	if language == "" {
		language = "any"
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrLanguage, language),
		attribute.String(AttrResult, result),
	)
	m.populations.Add(ctx, 1, attrs)
	m.populationDuration.Record(ctx, duration.Seconds(), attrs)
}
