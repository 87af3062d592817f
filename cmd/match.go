package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/filtering"
	"github.com/spigell/cv-matcher/internal/jobmatch"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
)

const (
	PromptShowJobs            = "Show matched jobs"
	PromptReportByCompanies   = "Report by companies"
	PromptJobsToFile          = "Dump matched jobs to file"
	PromptAppendToExcludeFile = "Append all matched jobs to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"

	outputTable = "table"
	outputJSON  = "json"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match <candidate>",
	Short: "Rank jobs against the keywords of a candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("limit", "l", 0, "maximum number of jobs to return (default from config)")
	matchCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
	matchCmd.Flags().BoolP("interactive", "i", false, "browse the results in an interactive menu")
	matchCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")

	viper.BindPFlag("limit", matchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("filters.exclude-file", matchCmd.Flags().Lookup("exclude-file"))
}

func setup() (*Config, *zap.Logger) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config, logger
}

func match(cmd *cobra.Command, candidateID string) {
	ctx := context.Background()

	config, logger := setup()

	output := cmd.Flag("output").Value.String()
	if output != outputTable && output != outputJSON {
		logger.Fatal("unknown output format", zap.String("output", output))
	}

	logger.Info("starting the cv-matcher", zap.String("version", version))

	d, err := newDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}
	defer d.close()

	for _, status := range d.filters.Describe() {
		logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	result, err := d.service.Match(ctx, candidateID, config.Limit)
	if errors.Is(err, jobmatch.ErrNoKeywords) {
		d.close()
		logger.Fatal("nothing to match",
			zap.Error(err),
			zap.String("candidate", candidateID),
			zap.String("hint", "check the keywords source in the configuration file"),
		)
	}
	if err != nil {
		d.close()
		logger.Fatal("matching failed", zap.Error(err))
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive {
		if err := printResult(os.Stdout, output, result); err != nil {
			logger.Fatal("printing result", zap.Error(err))
		}
		return
	}

	if len(result.Jobs) == 0 {
		logger.Info("exiting", zap.String("reason", "no matching jobs found"))
		return
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Found %d jobs for %s. What next?", len(result.Jobs), result.CandidateID),
		Items: []string{PromptShowJobs, PromptReportByCompanies, PromptJobsToFile, PromptAppendToExcludeFile, PromptExit},
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, config, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, result *jobmatch.Result) error {
	switch action {
	case PromptShowJobs:
		return browseJobs(result.Jobs)
	case PromptReportByCompanies:
		return printTable(os.Stdout, []string{"COMPANY", "JOBS"}, reportByCompany(result.Jobs))
	case PromptJobsToFile:
		filename, err := dumpToTmpFile(result)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := config.Filters.ExcludeFile
		if excludeFile == "" {
			logger.Warn("exclude file is not set", zap.String("hint", "set filters.exclude-file or pass --exclude-file"))
			return nil
		}
		if err := filtering.AppendToExcludeFile(excludeFile, jobsOf(result.Jobs), time.Now()); err != nil {
			return err
		}
		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", len(result.Jobs)))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func browseJobs(jobs []matching.ScoredJob) error {
	items := make([]string, 0, len(jobs)+1)
	for i, job := range jobs {
		items = append(items, fmt.Sprintf("%d. %.3f %s / %s", i+1, job.Score, job.Title, job.Company))
	}

	for {
		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		idx, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		printJob(os.Stdout, jobs[idx])
	}
}

func printJob(w io.Writer, job matching.ScoredJob) {
	fmt.Fprintf(w, "%s (%s)\n", job.Title, job.Key())
	if job.Company != "" {
		fmt.Fprintf(w, "  company:  %s\n", job.Company)
	}
	if job.URL != "" {
		fmt.Fprintf(w, "  url:      %s\n", job.URL)
	}
	fmt.Fprintf(w, "  score:    %.3f\n", job.Score)
	fmt.Fprintf(w, "  matched:  %s\n", strings.Join(job.Matched, ", "))
	fmt.Fprintf(w, "  keywords: %s\n", strings.Join(job.Keywords.Items(), ", "))
}

func printResult(w io.Writer, output string, result *jobmatch.Result) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	rows := make([][]string, 0, len(result.Jobs))
	for i, job := range result.Jobs {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			fmt.Sprintf("%.3f", job.Score),
			job.Key().String(),
			job.Title,
			job.Company,
			strings.Join(job.Matched, ","),
		})
	}

	return printTable(w, []string{"#", "SCORE", "JOB", "TITLE", "COMPANY", "MATCHED"}, rows)
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// reportByCompany counts matched jobs per company, most jobs first.
func reportByCompany(jobs []matching.ScoredJob) [][]string {
	counts := make(map[string]int)
	for _, job := range jobs {
		company := job.Company
		if company == "" {
			company = "-"
		}
		counts[company]++
	}

	companies := make([]string, 0, len(counts))
	for company := range counts {
		companies = append(companies, company)
	}
	sort.Slice(companies, func(i, j int) bool {
		if counts[companies[i]] != counts[companies[j]] {
			return counts[companies[i]] > counts[companies[j]]
		}
		return companies[i] < companies[j]
	})

	rows := make([][]string, 0, len(companies))
	for _, company := range companies {
		rows = append(rows, []string{company, fmt.Sprint(counts[company])})
	}
	return rows
}

func dumpToTmpFile(result *jobmatch.Result) (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := printResult(file, outputJSON, result); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func jobsOf(scored []matching.ScoredJob) []matching.JobRecord {
	jobs := make([]matching.JobRecord, 0, len(scored))
	for _, job := range scored {
		jobs = append(jobs, job.JobRecord)
	}
	return jobs
}
