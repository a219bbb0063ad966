package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gallery/internal/constants"
)

var galleryNearestCmd = &cobra.Command{
	Use:   "nearest <image>",
	Short: "Rank enrolled identities by distance to the first face in an image",
	Long: `Show the k enrolled identities closest to the first face in an image.

This is a diagnostic view: recognition still takes the first identity within
tolerance in label order, which is not always the closest one.

Examples:
  face-gallery gallery nearest unknown.jpg
  face-gallery gallery nearest unknown.jpg --k 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryNearest,
}

func init() {
	galleryCmd.AddCommand(galleryNearestCmd)

	galleryNearestCmd.Flags().Int("k", constants.DefaultNearestK, "Number of identities to show")
	galleryNearestCmd.Flags().Bool("json", false, "Output as JSON")
}

type nearestEntry struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Within   bool    `json:"within_tolerance"`
}

func runGalleryNearest(cmd *cobra.Command, args []string) error {
	k := mustGetInt(cmd, "k")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	image, err := readImage(args[0])
	if err != nil {
		return err
	}
	face, err := a.service.FirstFace(ctx, image)
	if err != nil {
		return fmt.Errorf("reading face from %s: %w", args[0], err)
	}

	neighbours, err := nearest(ctx, a.store, face.Embedding, k)
	if err != nil {
		return err
	}

	entries := make([]nearestEntry, len(neighbours))
	for i, n := range neighbours {
		entries[i] = nearestEntry{
			Label:    n.Label,
			Distance: n.Distance,
			Within:   n.Distance <= a.cfg.Matching.Tolerance,
		}
	}

	if jsonOutput {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No identities enrolled.")
		return nil
	}
	fmt.Printf("Face at %s\n\n", face.Region)
	for i, e := range entries {
		marker := ""
		if e.Within {
			marker = "  *"
		}
		fmt.Printf("%3d. %-40s %.4f%s\n", i+1, e.Label, e.Distance, marker)
	}
	fmt.Printf("\n* within tolerance %.2f\n", a.cfg.Matching.Tolerance)
	return nil
}
