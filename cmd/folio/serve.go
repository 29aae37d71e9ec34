package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/folio/bootstrap"
	"github.com/kbukum/folio/site"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the HTTP server until interrupted",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			if _, err := site.New(app); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}
