package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"keywordanalyzer/internal/cache"
	"keywordanalyzer/internal/decode"
	"keywordanalyzer/internal/fetch"
	"keywordanalyzer/internal/keyword"
	"keywordanalyzer/internal/log"
	"keywordanalyzer/internal/metrics"
	"keywordanalyzer/internal/model"
)

const DefaultWorkers = 10

// Fetcher retrieves a single resource. *fetch.Client is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Analyzer runs the fetch-decode-count pipeline over a URL list.
type Analyzer struct {
	fetcher Fetcher
	decoder *decode.Decoder
	cache   *cache.Store
	workers int
	group   singleflight.Group

	total     atomic.Int64
	completed atomic.Int64
}

// Progress is a snapshot of the running analysis.
type Progress struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// NewAnalyzer builds an Analyzer. A nil store disables caching; workers below one
// falls back to DefaultWorkers.
func NewAnalyzer(fetcher Fetcher, decoder *decode.Decoder, store *cache.Store, workers int) *Analyzer {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Analyzer{
		fetcher: fetcher,
		decoder: decoder,
		cache:   store,
		workers: workers,
	}
}

// ClassifyContentType maps a content type to its report category.
func ClassifyContentType(contentType string) model.Category {
	if strings.Contains(contentType, "text") {
		return model.CategoryReadable
	}
	return model.CategoryNonReadable
}

// Analyze returns one record per URL in input order. Each worker owns the slots
// of the indexes it receives, so completion order does not matter.
func (a *Analyzer) Analyze(ctx context.Context, urls []string, keywords []string) []model.AnalysisRecord {
	records := make([]model.AnalysisRecord, len(urls))
	if len(urls) == 0 {
		return records
	}

	a.total.Add(int64(len(urls)))
	counter := keyword.NewCounter(keywords)
	logger := log.Logger.With(zap.String("run_id", uuid.New().String()))

	numWorkers := a.workers
	if len(urls) < numWorkers {
		numWorkers = len(urls)
	}

	logger.Info("starting analysis",
		zap.Int("urls", len(urls)),
		zap.Int("keywords", len(keywords)),
		zap.Int("workers", numWorkers),
		zap.Strings("encodings", a.decoder.Encodings()),
	)

	jobs := make(chan int, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				records[idx] = a.analyzeURL(ctx, logger, idx, urls[idx], counter)
				a.completed.Add(1)
			}
		}()
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return records
}

func (a *Analyzer) Progress() Progress {
	return Progress{Total: a.total.Load(), Completed: a.completed.Load()}
}

func (a *Analyzer) analyzeURL(ctx context.Context, logger *zap.Logger, idx int, url string, counter *keyword.Counter) model.AnalysisRecord {
	logger.Info("analyzing url", zap.Int("index", idx), zap.String("url", url))
	start := time.Now()

	entry, cached, err := a.resource(ctx, url)
	if err != nil {
		metrics.ObserveURL(metrics.OutcomeFailed)
		logger.Warn("analysis failed",
			zap.Int("index", idx),
			zap.String("url", url),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return model.FailedRecord(url, counter.Keywords(), err)
	}

	counts := counter.Count(entry.Text)
	for _, kc := range counts {
		metrics.ObserveKeyword(kc.Keyword, kc.Count)
	}

	outcome := metrics.OutcomeSuccess
	if cached {
		outcome = metrics.OutcomeCached
	}
	metrics.ObserveURL(outcome)

	record := model.AnalysisRecord{
		URL:           url,
		ContentType:   entry.ContentType,
		Category:      ClassifyContentType(entry.ContentType),
		KeywordCounts: counts,
		Error:         model.ErrorNone,
		Encoding:      entry.Encoding,
		StatusCode:    entry.StatusCode,
	}

	logger.Info("analyzed url",
		zap.Int("index", idx),
		zap.String("url", url),
		zap.String("category", record.Category.String()),
		zap.String("encoding", entry.Encoding),
		zap.String("decode_method", entry.Method),
		zap.Int("status_code", entry.StatusCode),
		zap.Bool("cached", cached),
		zap.Duration("duration", time.Since(start)),
	)
	return record
}

// resource returns the decoded resource for url, fetching it at most once per cache
// lifetime. Concurrent requests for the same URL share one fetch.
func (a *Analyzer) resource(ctx context.Context, url string) (cache.Entry, bool, error) {
	if entry, ok := a.cache.Get(url); ok {
		return entry, true, nil
	}

	fetched := false
	v, err, _ := a.group.Do(url, func() (interface{}, error) {
		fetched = true
		resp, err := a.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		decoded := a.decoder.Decode(resp.Body)
		metrics.ObserveDecode(decoded.Encoding, string(decoded.Method))

		entry := cache.Entry{
			StatusCode:  resp.StatusCode,
			ContentType: resp.ContentType,
			Encoding:    decoded.Encoding,
			Method:      string(decoded.Method),
			Text:        decoded.Text,
		}
		a.cache.Set(url, entry)
		return entry, nil
	})
	if err != nil {
		return cache.Entry{}, false, err
	}
	return v.(cache.Entry), !fetched, nil
}
