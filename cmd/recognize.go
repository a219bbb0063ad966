package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gallery/internal/facematch"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Identify every face in an image",
	Long: `Detect all faces in an image and match each against the gallery.

Each face is reported with its location and the first enrolled identity
within the tolerance, or as unknown.

Examples:
  face-gallery recognize group.jpg
  face-gallery recognize group.jpg --tolerance 0.5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	recognizeCmd.Flags().Float64("tolerance", facematch.DefaultTolerance, "Maximum Euclidean distance for a match (default from FACE_TOLERANCE)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.service
	if cmd.Flags().Changed("tolerance") {
		svc, err = a.newService(mustGetFloat64(cmd, "tolerance"))
		if err != nil {
			return err
		}
	}

	image, err := readImage(args[0])
	if err != nil {
		return err
	}

	results, err := svc.Recognize(ctx, image)
	if err != nil {
		return fmt.Errorf("recognizing %s: %w", args[0], err)
	}

	if jsonOutput {
		return outputJSON(results)
	}

	for i, r := range results {
		if r.Recognized {
			fmt.Printf("Face %d: %s (distance %.4f) at %s\n", i+1, r.Label, r.Distance, r.Region)
		} else {
			fmt.Printf("Face %d: unknown at %s\n", i+1, r.Region)
		}
	}
	return nil
}
