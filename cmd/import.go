package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-gallery/internal/constants"
	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/kozaktomas/face-gallery/internal/facematch"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Enroll every image in a directory",
	Long: `Enroll all images in a directory, using each file name (without the
extension) as the person name.

Faces that are already enrolled and names that are already taken are counted
and skipped, not treated as failures.

Examples:
  # Import a directory with 5 concurrent workers
  face-gallery import ./people

  # Use different concurrency
  face-gallery import ./people --concurrency 2`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel workers")
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".gif"}

// importStats counts the outcome of each imported file.
type importStats struct {
	mu         sync.Mutex
	enrolled   int
	duplicates int
	collisions int
	noFace     int
	failed     []string
}

func (s *importStats) record(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err == nil:
		s.enrolled++
	case errors.Is(err, facematch.ErrDuplicateIdentity):
		s.duplicates++
	case errors.Is(err, database.ErrLabelCollision):
		s.collisions++
	case errors.Is(err, facematch.ErrNoFaceDetected):
		s.noFace++
	default:
		s.failed = append(s.failed, fmt.Sprintf("%s: %v", filepath.Base(path), err))
	}
}

// listImages returns the image files directly inside dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := max(mustGetInt(cmd, "concurrency"), 1)

	files, err := listImages(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No images found.")
		return nil
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	before, err := a.store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Identities in gallery: %d\n", before)
	fmt.Printf("Images to import: %d\n\n", len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	stats := &importStats{}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, path := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			image, err := readImage(path)
			if err != nil {
				stats.record(path, err)
				return
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			label, err := a.service.Enroll(ctx, image, name, "")
			if err == nil {
				a.logger.Debug("imported", "file", path, "label", label)
			}
			stats.record(path, err)
		}(path)
	}

	wg.Wait()
	fmt.Println()

	after, _ := a.store.Count(ctx)
	fmt.Printf("\nEnrolled: %d, already enrolled: %d, name taken: %d, no face: %d, errors: %d\n",
		stats.enrolled, stats.duplicates, stats.collisions, stats.noFace, len(stats.failed))
	fmt.Printf("Identities in gallery: %d\n", after)

	for _, f := range stats.failed {
		fmt.Printf("  %s\n", f)
	}
	if len(stats.failed) > 0 {
		return fmt.Errorf("%d images failed to import", len(stats.failed))
	}
	return nil
}
