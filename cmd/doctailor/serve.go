package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/doctailor/internal/app"
	"github.com/dgallion1/doctailor/internal/config"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and tailoring workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgFile)
			if err != nil {
				return err
			}
			return app.Serve(cmd.Context(), cfg, root.logger(true))
		},
	}
}
