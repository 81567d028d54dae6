package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"github.com/spf13/cobra"

	"github.com/nityanand123gupta/felicity-event-management/cmd/app"
)

// @title           Felicity Event Management API
// @version         1.0
// @description     Events, registrations, merchandise orders and attendance for a college fest.
//
// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @BasePath  /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "felicity",
		Short:        "Fest event management API",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.Start(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", app.DefaultConfigPath, "path to the config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(_ *cobra.Command, _ []string) error {
				return app.Start(configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(_ *cobra.Command, _ []string) error {
				return app.Migrate(configPath)
			},
		},
	)

	return root
}
