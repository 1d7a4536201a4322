package kcal

import (
	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/di"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyze-food edge function over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			conf.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			conf.Server.Port = servePort
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		srv, err := di.InitServer(conf)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}
