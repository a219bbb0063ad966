package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-gallery/internal/database"
	"github.com/kozaktomas/face-gallery/internal/facematch"
)

// newTestServer serves the given status and body on /embed/face and checks
// that the image arrives in the "file" form field.
func newTestServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			if string(data) != "image-bytes" {
				t.Errorf("unexpected upload %q", data)
			}
		}

		w.WriteHeader(status)
		switch b := body.(type) {
		case string:
			_, _ = w.Write([]byte(b))
		default:
			_ = json.NewEncoder(w).Encode(b)
		}
	}))
}

func TestDetectFaces(t *testing.T) {
	resp := FaceResponse{
		FacesCount: 2,
		Model:      "dlib",
		Faces: []FaceDetection{
			{FaceIndex: 1, Dim: 3, Embedding: []float64{0.4, 0.5, 0.6}, BBox: []float64{100, 50, 180, 140}},
			{FaceIndex: 0, Dim: 3, Embedding: []float64{0.1, 0.2, 0.3}, BBox: []float64{10, 20, 60, 90}},
		},
	}
	srv := newTestServer(t, http.StatusOK, resp)
	defer srv.Close()

	c := New(srv.URL+"/", 3, 0)
	faces, err := c.DetectFaces(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("DetectFaces() error: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}

	want0 := facematch.Region{Top: 20, Right: 60, Bottom: 90, Left: 10}
	if faces[0].Region != want0 {
		t.Errorf("faces[0].Region = %+v, want %+v", faces[0].Region, want0)
	}
	if faces[0].Embedding[0] != 0.1 {
		t.Errorf("faces not returned in face_index order: %+v", faces)
	}
	if faces[1].Region.Left != 100 {
		t.Errorf("faces[1].Region = %+v", faces[1].Region)
	}
}

func TestDetectFaces_NoFaces(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, FaceResponse{FacesCount: 0, Faces: []FaceDetection{}})
	defer srv.Close()

	faces, err := New(srv.URL, 128, 0).DetectFaces(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("DetectFaces() error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestDetectFaces_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		dim     int
		wantErr error
	}{
		{
			name:    "bad request is a decode error",
			status:  http.StatusBadRequest,
			body:    `{"detail":"cannot identify image file"}`,
			wantErr: facematch.ErrImageDecode,
		},
		{
			name:    "unsupported media type",
			status:  http.StatusUnsupportedMediaType,
			body:    "unsupported",
			wantErr: facematch.ErrImageDecode,
		},
		{
			name:    "unprocessable entity",
			status:  http.StatusUnprocessableEntity,
			body:    "bad image",
			wantErr: facematch.ErrImageDecode,
		},
		{
			name:   "wrong dimension",
			status: http.StatusOK,
			body: FaceResponse{FacesCount: 1, Faces: []FaceDetection{
				{Embedding: []float64{1, 2}, BBox: []float64{0, 0, 1, 1}},
			}},
			dim:     128,
			wantErr: database.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)
			defer srv.Close()

			_, err := New(srv.URL, tt.dim, 0).DetectFaces(context.Background(), []byte("image-bytes"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDetectFaces_ServerError(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError, "model crashed")
	defer srv.Close()

	_, err := New(srv.URL, 0, 0).DetectFaces(context.Background(), []byte("image-bytes"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, facematch.ErrImageDecode) {
		t.Errorf("server failure must not be reported as a decode error: %v", err)
	}
}

func TestDetectFaces_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"not json", "<html>"},
		{"bad bbox", FaceResponse{Faces: []FaceDetection{{Embedding: []float64{1}, BBox: []float64{1, 2}}}}},
		{"empty embedding", FaceResponse{Faces: []FaceDetection{{BBox: []float64{0, 0, 1, 1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body)
			defer srv.Close()

			if _, err := New(srv.URL, 0, 0).DetectFaces(context.Background(), []byte("image-bytes")); err == nil {
				t.Error("expected error")
			}
		})
	}
}
