package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-gallery",
	Short: "Enroll and recognize faces against a gallery of embeddings",
	Long: `Face Gallery keeps a gallery of enrolled face embeddings and matches
faces found in photos against it. Face detection and embedding are done by an
external embedding server; the gallery lives in a directory of .npy files,
PostgreSQL (pgvector) or an embedded BadgerDB.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
