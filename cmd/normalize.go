package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <keyword>...",
	Short: "Print the canonical term of every keyword",
	Long:  "Print the canonical term of every keyword. Keywords that normalize to nothing are printed as '-'.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		normalize(args)
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func normalize(keywords []string) {
	config, logger := setup()

	normalizer, err := newNormalizer(config)
	if err != nil {
		logger.Fatal("creating normalizer", zap.Error(err))
	}

	logger.Debug("vocabulary", zap.String("fingerprint", normalizer.Fingerprint()))

	for _, keyword := range keywords {
		term, ok := normalizer.Normalize(keyword)
		if !ok {
			term = "-"
		}
		fmt.Printf("%s\t%s\n", keyword, term)
	}
}
