package cli

import (
	"github.com/spf13/cobra"

	"llamaconv/internal/server"
)

func ServeAppCommand(g *globalOpts) *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:     "serve",
		Short:   "Serve an API to validate and convert models over the web",
		Example: "llamaconv serve --port 8888",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				g.conf.Server.Port = port
			}
			return server.StartServer(cmd.Context(), server.Options{
				Conf:       g.conf,
				Executable: executable(),
			})
		},
	}

	command.Flags().StringVar(&port, "port", "8080", "Port on which to start the server, overrides the config file")

	return command
}
