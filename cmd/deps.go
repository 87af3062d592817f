package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/ai/gemini"
	"github.com/spigell/cv-matcher/internal/corpuscache"
	"github.com/spigell/cv-matcher/internal/filtering"
	"github.com/spigell/cv-matcher/internal/headhunter"
	"github.com/spigell/cv-matcher/internal/jobmatch"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/secrets"
	"github.com/spigell/cv-matcher/internal/sources"
	"github.com/spigell/cv-matcher/internal/store"
	"github.com/spigell/cv-matcher/internal/vocabulary"
)

// deps holds everything a command needs. Call close when done.
type deps struct {
	service *jobmatch.Service
	filters *filtering.Filtering
	closers []func() error
	logger  *zap.Logger
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("closing dependency", zap.Error(err))
		}
	}
}

func newNormalizer(config *Config) (*matching.Normalizer, error) {
	vocab := vocabulary.Default()
	if path := strings.TrimSpace(config.Vocabulary); path != "" {
		custom, err := vocabulary.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading vocabulary: %w", err)
		}
		vocab = custom
	}

	return matching.NewNormalizer(vocab)
}

func openStore(ctx context.Context, config *Config) (store.Store, error) {
	dsn, err := secrets.Load(secrets.Source{
		Name:  "database url",
		Value: config.Database.URL,
		File:  config.Database.URLFile,
		Env:   config.Database.URLEnv,
	})
	if err != nil {
		return nil, err
	}

	return store.Open(ctx, dsn)
}

func newHHClient(config *Config, logger *zap.Logger) (*headhunter.Client, error) {
	token, err := secrets.LoadOptional(secrets.Source{Name: "hh.ru token", File: config.HH.TokenFile})
	if err != nil {
		return nil, err
	}

	client := headhunter.New(logger, token)
	if config.HH.UserAgent != "" {
		client.UserAgent = config.HH.UserAgent
	}
	client.SetRateLimit(config.HH.RateLimit, 2)

	return client, nil
}

func newDeps(ctx context.Context, config *Config, logger *zap.Logger) (*deps, error) {
	d := &deps{logger: logger}

	normalizer, err := newNormalizer(config)
	if err != nil {
		return nil, err
	}

	var (
		db       store.Store
		hhClient *headhunter.Client
	)
	getStore := func() (store.Store, error) {
		if db != nil {
			return db, nil
		}
		db, err = openStore(ctx, config)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error { db.Close(); return nil })
		return db, nil
	}
	getHH := func() (*headhunter.Client, error) {
		if hhClient != nil {
			return hhClient, nil
		}
		hhClient, err = newHHClient(config, logger)
		return hhClient, err
	}

	keywords, err := newKeywordSource(ctx, config, logger, getStore, getHH)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("creating keyword source: %w", err)
	}

	jobs, err := newJobCorpus(config, getStore, getHH)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("creating job corpus: %w", err)
	}

	d.filters = filtering.New(logger,
		filtering.NewDuplicates(),
		filtering.NewSources(config.Filters.Sources),
		filtering.NewCompanies(config.Filters.Companies),
		filtering.NewExcludeFile(config.Filters.ExcludeFile),
	)

	opts := []jobmatch.Option{
		jobmatch.WithFilters(d.filters),
		jobmatch.WithLogger(logger),
	}

	if config.Cache.Enabled {
		redisURL, err := secrets.LoadOptional(secrets.Source{
			Name:  "redis url",
			Value: config.Cache.Redis.URL,
			File:  config.Cache.Redis.URLFile,
			Env:   config.Cache.Redis.URLEnv,
		})
		if err != nil {
			d.close()
			return nil, err
		}

		cache := corpuscache.New(ctx, corpuscache.Config{
			TTL:        config.Cache.TTL,
			MaxEntries: config.Cache.MaxEntries,
			RedisURL:   redisURL,
		}, logger)
		d.closers = append(d.closers, cache.Close)
		opts = append(opts, jobmatch.WithCache(cache))
	}

	d.service = jobmatch.New(keywords, jobs, matching.NewRanker(normalizer, logger), opts...)

	return d, nil
}

func newKeywordSource(
	ctx context.Context,
	config *Config,
	logger *zap.Logger,
	getStore func() (store.Store, error),
	getHH func() (*headhunter.Client, error),
) (jobmatch.KeywordSource, error) {
	switch config.Keywords.Source {
	case sourceFile:
		return sources.NewKeywordsFile(config.Keywords.File), nil
	case sourceDatabase:
		return getStore()
	case sourceHH:
		client, err := getHH()
		if err != nil {
			return nil, err
		}
		return headhunter.NewResumeKeywords(client), nil
	case sourceGemini:
		apiKey, err := secrets.Load(secrets.Source{Name: "gemini api key", File: config.Gemini.APIKeyFile, Env: "GEMINI_API_KEY"})
		if err != nil {
			return nil, err
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model)
		if err != nil {
			return nil, err
		}
		extractor := gemini.NewKeywordExtractor(generator, logger, gemini.Options{
			MaxKeywords:  config.Gemini.MaxKeywords,
			MaxRetries:   config.Gemini.MaxRetries,
			RetryDelay:   config.Gemini.RetryDelay,
			MaxLogLength: config.Gemini.MaxLogLength,
		})
		return ai.NewCVKeywords(config.Keywords.CVDir, extractor, logger), nil
	default:
		return nil, fmt.Errorf("unknown keywords source %q", config.Keywords.Source)
	}
}

func newJobCorpus(
	config *Config,
	getStore func() (store.Store, error),
	getHH func() (*headhunter.Client, error),
) (jobmatch.JobCorpus, error) {
	switch config.Jobs.Source {
	case sourceFile:
		return sources.NewJobsFile(config.Jobs.File), nil
	case sourceDatabase:
		return getStore()
	case sourceHH:
		client, err := getHH()
		if err != nil {
			return nil, err
		}
		corpus := headhunter.NewCorpus(client, *config.Jobs.Search)
		corpus.MaxVacancies = config.Jobs.MaxVacancies
		return corpus, nil
	default:
		return nil, fmt.Errorf("unknown jobs source %q", config.Jobs.Source)
	}
}
