package main

import (
	"github.com/spf13/cobra"

	"autograph-ds-builder/domain/pipeline"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/metadata"
)

func runStage(stage string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		services, closeServices, err := openServices(ctx)
		defer closeServices()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, logging.NewLogger(), services)
		_, err = p.Run(ctx, stage)
		return err
	}
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link corpus sentences to knowledge-base entities (writes linked.jsonl)",
	Long: `Link every sentence of link.corpus against the entity index built from the vocabulary.

With link.distributed the sentences are dispatched over RabbitMQ to link-worker processes.`,
	Args: cobra.NoArgs,
	RunE: runStage(metadata.StageLink),
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Sample positive and negative groups for linked sentences (writes groups.jsonl)",
	Args:  cobra.NoArgs,
	RunE:  runStage(metadata.StageAlign),
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Prune relations, collect evidence bags and split train/dev/test from groups.jsonl",
	Args:  cobra.NoArgs,
	RunE:  runStage(metadata.StageBuild),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run link, align and build in one go",
	Args:  cobra.NoArgs,
	RunE:  runStage(metadata.StageRun),
}

func init() {
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
}
