package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autograph-ds-builder/domain/pipeline"
	"autograph-ds-builder/logging"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Load the knowledge base and print its statistics",
	Long: `Load the knowledge base graph. When vocab.drugbank_meta and vocab.drugbank_ddi are set
the DrugBank TSV files are parsed and the graph is saved to vocab.path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(cfg, logging.NewLogger(), pipeline.Services{})
		graph, err := p.Vocab()
		if err != nil {
			return err
		}

		s := graph.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "cuis: %d\ntexts: %d\nrelations: %d\ntriples: %d\ngroups: %d\n",
			s.CUIs, s.Texts, s.Relations, s.Triples, s.Groups)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
}
