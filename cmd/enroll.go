package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <image>",
	Short: "Enroll the face in an image under a new label",
	Long: `Detect the face in an image and add it to the gallery.

The label is the name, or name-document when a document is given. Without a
name a random UUID is used. If the image contains several faces, the first
one is enrolled. Enrollment fails when the face is already in the gallery
(within FACE_DUPLICATE_TOLERANCE) or when the label is taken.

Examples:
  face-gallery enroll bob.jpg --name bob --document 123
  face-gallery enroll visitor.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Person name (random UUID when empty)")
	enrollCmd.Flags().String("document", "", "Document number appended to the label")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	document := mustGetString(cmd, "document")

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

	label, err := a.service.Enroll(ctx, image, name, document)
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", args[0], err)
	}

	fmt.Println(label)
	return nil
}
