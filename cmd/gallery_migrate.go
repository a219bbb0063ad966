package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gallery/internal/config"
	"github.com/kozaktomas/face-gallery/internal/database"
)

var galleryMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every identity into another storage backend",
	Long: `Copy the configured gallery into another backend. Labels that already
exist in the target are skipped.

Examples:
  # Move a .npy directory into PostgreSQL
  face-gallery gallery migrate --to-backend postgres --to-url postgres://localhost/faces

  # Export PostgreSQL to a directory readable by numpy.load
  FACE_STORE_BACKEND=postgres face-gallery gallery migrate --to-backend npy --to-path ./export`,
	Args: cobra.NoArgs,
	RunE: runGalleryMigrate,
}

func init() {
	galleryCmd.AddCommand(galleryMigrateCmd)

	galleryMigrateCmd.Flags().String("to-backend", "", "Target backend (npy, postgres, badger)")
	galleryMigrateCmd.Flags().String("to-path", "", "Target directory for the npy or badger backend")
	galleryMigrateCmd.Flags().String("to-url", "", "Target PostgreSQL URL for the postgres backend")
	_ = galleryMigrateCmd.MarkFlagRequired("to-backend")
}

// targetConfig derives the target store configuration from the source one.
func targetConfig(src *config.Config, backend, path, url string) *config.Config {
	dst := *src
	dst.Store.Backend = backend
	switch backend {
	case config.BackendNPY:
		if path != "" {
			dst.Store.EncodingsDir = path
		}
	case config.BackendBadger:
		if path != "" {
			dst.Store.BadgerDir = path
		}
	case config.BackendPostgres:
		if url != "" {
			dst.Database.URL = url
		}
	}
	return &dst
}

// copyGallery persists every record of gallery into dst and returns the
// number copied and skipped. It stops at the first error other than a
// label collision.
func copyGallery(ctx context.Context, gallery database.Gallery, dst database.Store, onRecord func()) (copied, skipped int, err error) {
	for _, r := range gallery {
		err := dst.Persist(ctx, r.Label, r.Embedding)
		switch {
		case err == nil:
			copied++
		case errors.Is(err, database.ErrLabelCollision):
			skipped++
		default:
			return copied, skipped, fmt.Errorf("copying %q: %w", r.Label, err)
		}
		if onRecord != nil {
			onRecord()
		}
	}
	return copied, skipped, nil
}

func runGalleryMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	srcCfg := config.Load()
	dstCfg := targetConfig(srcCfg,
		mustGetString(cmd, "to-backend"), mustGetString(cmd, "to-path"), mustGetString(cmd, "to-url"))

	if dstCfg.Store == srcCfg.Store && dstCfg.Database.URL == srcCfg.Database.URL {
		return errors.New("source and target gallery are the same")
	}

	src, err := openStore(ctx, srcCfg)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer src.Close()

	dst, err := openStore(ctx, dstCfg)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	defer dst.Close()

	gallery, err := src.LoadAll(ctx)
	if err != nil {
		return err
	}
	if len(gallery) == 0 {
		fmt.Println("Source gallery is empty.")
		return nil
	}

	fmt.Printf("Copying %d identities from %s to %s\n\n", len(gallery), srcCfg.Store.Backend, dstCfg.Store.Backend)
	bar := progressbar.NewOptions(len(gallery),
		progressbar.OptionSetDescription("Migrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionFullWidth(),
	)

	copied, skipped, err := copyGallery(ctx, gallery, dst, func() { _ = bar.Add(1) })
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("\nCopied: %d, skipped (label exists): %d\n", copied, skipped)
	return nil
}
