package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"remsort/internal/apihandlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts an HTTP server exposing classification, category management,
backend control and the review queue as a RESTful API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		router := gin.Default()
		apihandlers.RegisterRoutes(router, appInstance)

		addr := appInstance.Config.Server.Address
		fmt.Printf("Listening on %s\n", addr)
		return router.Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
