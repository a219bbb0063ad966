package facematch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// Embedder finds faces in an encoded image and computes their embeddings.
type Embedder interface {
	DetectFaces(ctx context.Context, image []byte) ([]Detection, error)
}

// Service combines the embedder with recognition and enrollment.
type Service struct {
	embedder   Embedder
	recognizer *Recognizer
	enroller   *Enroller
	store      database.Store
	logger     *slog.Logger
}

// ServiceConfig holds the thresholds used by a Service.
type ServiceConfig struct {
	Tolerance          float64
	DuplicateTolerance float64
}

// NewService wires a Service over store and embedder.
func NewService(store database.Store, embedder Embedder, cfg ServiceConfig, logger *slog.Logger) (*Service, error) {
	if !validTolerance(cfg.Tolerance) {
		return nil, fmt.Errorf("%w: recognition tolerance %v", ErrInvalidTolerance, cfg.Tolerance)
	}
	if !validTolerance(cfg.DuplicateTolerance) {
		return nil, fmt.Errorf("%w: duplicate tolerance %v", ErrInvalidTolerance, cfg.DuplicateTolerance)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder:   embedder,
		recognizer: NewRecognizer(store, cfg.Tolerance, logger),
		enroller:   NewEnroller(store, cfg.DuplicateTolerance, logger),
		store:      store,
		logger:     logger,
	}, nil
}

// Recognize identifies every face in image. The gallery is checked before
// the image is sent to the embedder.
func (s *Service) Recognize(ctx context.Context, image []byte) ([]FaceResult, error) {
	gallery, err := s.recognizer.Gallery(ctx)
	if err != nil {
		return nil, err
	}

	faces, err := s.embedder.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	return s.recognizer.RecognizeIn(gallery, faces)
}

// Enroll registers the first face found in image under the label derived
// from name and document. Additional faces in the image are ignored.
func (s *Service) Enroll(ctx context.Context, image []byte, name, document string) (string, error) {
	label, err := ResolveLabel(name, document)
	if err != nil {
		return "", err
	}

	faces, err := s.embedder.DetectFaces(ctx, image)
	if err != nil {
		return "", fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		return "", ErrNoFaceDetected
	}
	if len(faces) > 1 {
		s.logger.Warn("multiple faces detected, enrolling the first", "faces", len(faces), "label", label)
	}

	return s.enroller.Enroll(ctx, faces[0].Embedding, label)
}

// FirstFace returns the embedding of the first face in image.
func (s *Service) FirstFace(ctx context.Context, image []byte) (Detection, error) {
	faces, err := s.embedder.DetectFaces(ctx, image)
	if err != nil {
		return Detection{}, fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		return Detection{}, ErrNoFaceDetected
	}
	return faces[0], nil
}

// Store returns the gallery store the service reads and writes.
func (s *Service) Store() database.Store {
	return s.store
}
