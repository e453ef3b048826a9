package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wongnok",
	Short: "Wongnok gateway and terminal favorites client",
	Long: `Wongnok web backend-for-frontend.

Available commands:
  serve     - Run the HTTP gateway (auth, session, recipe API proxy)
  favorites - Browse your favorite recipes in the terminal`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, favoritesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
