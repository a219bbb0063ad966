package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect and maintain the gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Args:  cobra.NoArgs,
	RunE:  runGalleryList,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)

	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

type galleryEntry struct {
	Label string `json:"label"`
	Dim   int    `json:"dim"`
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	gallery, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}

	entries := make([]galleryEntry, len(gallery))
	for i, r := range gallery {
		entries[i] = galleryEntry{Label: r.Label, Dim: r.Embedding.Dim()}
	}

	if jsonOutput {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No identities enrolled.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%-40s %d\n", e.Label, e.Dim)
	}
	fmt.Printf("\n%d identities (%s backend)\n", len(entries), cfg.Store.Backend)
	return nil
}

// nearest ranks identities for query. Stores that can search server-side do
// so; otherwise an HNSW index is built over a fresh snapshot.
func nearest(ctx context.Context, store database.Store, query database.Embedding, k int) ([]database.Neighbour, error) {
	if finder, ok := store.(database.NearestFinder); ok {
		return finder.Nearest(ctx, query, k)
	}

	gallery, err := store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(gallery) == 0 {
		return nil, nil
	}

	index := database.NewNeighbourIndex()
	if err := index.Build(gallery); err != nil {
		return nil, err
	}
	return index.Search(query, k)
}
