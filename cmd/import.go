package cmd

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/sources"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load jobs or candidate keywords from files into the database",
}

var importJobsCmd = &cobra.Command{
	Use:   "jobs <file>",
	Short: "Upsert job records from a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importJobs(args[0])
	},
}

var importKeywordsCmd = &cobra.Command{
	Use:   "keywords <file>",
	Short: "Store candidate keywords from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importKeywords(args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importJobsCmd, importKeywordsCmd)
}

func importJobs(path string) {
	ctx := context.Background()
	config, logger := setup()

	jobs, err := sources.ReadJobs(path)
	if err != nil {
		logger.Fatal("reading jobs", zap.Error(err))
	}

	valid := make([]matching.JobRecord, 0, len(jobs))
	for i, job := range jobs {
		if err := job.Validate(); err != nil {
			logger.Warn("skipping malformed job record", zap.Int("index", i), zap.Error(err))
			continue
		}
		valid = append(valid, job)
	}

	db, err := openStore(ctx, config)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	defer db.Close()

	n, err := db.UpsertJobs(ctx, valid)
	if err != nil {
		db.Close()
		logger.Fatal("importing jobs", zap.Error(err))
	}

	logger.Info("imported jobs", zap.String("file", path), zap.Int("count", n), zap.Int("skipped", len(jobs)-len(valid)))
}

func importKeywords(path string) {
	ctx := context.Background()
	config, logger := setup()

	all, err := sources.ReadKeywords(path)
	if err != nil {
		logger.Fatal("reading keywords", zap.Error(err))
	}

	db, err := openStore(ctx, config)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	defer db.Close()

	candidates := make([]string, 0, len(all))
	for candidate := range all {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)

	for _, candidate := range candidates {
		if err := db.PutCandidateKeywords(ctx, candidate, all[candidate]); err != nil {
			db.Close()
			logger.Fatal("importing keywords", zap.String("candidate", candidate), zap.Error(err))
		}
		logger.Debug("imported keywords", zap.String("candidate", candidate), zap.Int("count", all[candidate].Len()))
	}

	logger.Info("imported candidates", zap.String("file", path), zap.Int("count", len(candidates)))
}
