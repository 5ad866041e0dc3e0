package main

import (
	"github.com/spf13/cobra"

	"autograph-ds-builder/domain/pipeline"
	"autograph-ds-builder/domain/tagger"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/metadata"
	"autograph-ds-builder/server"
	"autograph-ds-builder/server/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sentence linker and run records over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		tagger.Init(setting)
		index, err := tagger.NewEntityIndexFromGraph(graph)
		if err != nil {
			return err
		}
		defer index.Close()

		handlerSetting := handler.HandlerSetting{Linker: index}
		if cfg.Metadata.Enabled {
			store, err := metadata.Open(metadataConf())
			if err != nil {
				return err
			}
			defer store.Close()
			handlerSetting.Metadata = store
		}
		handler.Init(&handlerSetting)

		s := server.New(&server.Config{
			Host:      cfg.Server.Host,
			Port:      cfg.Server.Port,
			DebugMode: cfg.Server.DebugMode,
		})
		err = s.RunServer()
		if err != nil {
			logger.WithError(err).Errorf("run server error=\n%v", err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
