package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/folio/config"
	"github.com/kbukum/folio/site"
	"github.com/kbukum/folio/version"
)

const serviceName = "folio"

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Backend for the folio portfolio site",
		Long: `folio serves portfolio content from the headless CMS and shares a live
pointer position between every open page.

Configuration is read from config.yml, then .env, then FOLIO_* environment
variables. FOLIO_CONTENT_PROJECT_ID sets content.project_id.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./config.yml or ./cmd/folio/config.yml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file to load (default ./.env)")

	cmd.AddCommand(
		newServeCmd(opts),
		newContentCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration. Defaults and validation are applied later
// by bootstrap.NewApp.
func (o *rootOptions) load() (*site.Config, error) {
	loaderOpts := []config.LoaderOption{config.WithEnvPrefix("FOLIO")}
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}

	var cfg site.Config
	if err := config.Load(serviceName, &cfg, loaderOpts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}
	return &cfg, nil
}
