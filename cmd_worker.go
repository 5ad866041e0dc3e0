package main

import (
	"github.com/spf13/cobra"

	"autograph-ds-builder/domain/linkqueue"
	"autograph-ds-builder/domain/pipeline"
	"autograph-ds-builder/domain/tagger"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/utils"
)

var workerPrefetch int

var linkWorkerCmd = &cobra.Command{
	Use:   "link-worker",
	Short: "Consume sentence batches from RabbitMQ and publish linked records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		logger := logging.NewLogger()
		p := pipeline.New(cfg, logger, pipeline.Services{})
		graph, err := p.Vocab()
		if err != nil {
			return err
		}

		setting, err := p.IndexSetting()
		if err != nil {
			return err
		}
		index, err := tagger.NewEntityIndex(setting, graph.SurfaceForms())
		if err != nil {
			return utils.WrapError(err, "build entity index fail")
		}
		defer index.Close()

		return linkqueue.ServeWorker(ctx, &linkqueue.WorkerSetting{
			Config:   linkqueueConf(),
			Workers:  cfg.Link.Workers,
			Prefetch: workerPrefetch,
		}, index)
	},
}

func init() {
	linkWorkerCmd.Flags().IntVar(&workerPrefetch, "prefetch", 2, "Unacknowledged batches held by this worker")
	rootCmd.AddCommand(linkWorkerCmd)
}
