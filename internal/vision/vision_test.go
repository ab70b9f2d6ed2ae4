package vision

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	data, err := EncodeJPEG(testFrame(32, 24))
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("unexpected dimensions: %v", img.Bounds())
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}

	_, err = Decode(nil)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for empty payload, got %v", err)
	}
}

func TestDownscale(t *testing.T) {
	small, ratio := Downscale(testFrame(100, 50), 200)
	if ratio != 1 {
		t.Errorf("expected ratio 1 for small image, got %v", ratio)
	}
	if small.Bounds().Dx() != 100 {
		t.Errorf("small image should be unchanged, got %v", small.Bounds())
	}

	scaled, ratio := Downscale(testFrame(800, 400), 200)
	if ratio != 4 {
		t.Errorf("expected ratio 4, got %v", ratio)
	}
	if scaled.Bounds().Dx() != 200 || scaled.Bounds().Dy() != 100 {
		t.Errorf("unexpected scaled dimensions: %v", scaled.Bounds())
	}
}

func TestScaleBBox(t *testing.T) {
	got := ScaleBBox([]float64{10, 20, 30, 40}, 2)
	want := []float64{20, 40, 60, 80}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ScaleBBox = %v, want %v", got, want)
		}
	}

	same := []float64{1, 2, 3, 4}
	if got := ScaleBBox(same, 1); &got[0] != &same[0] {
		t.Error("ratio 1 should return the box unchanged")
	}
}

func TestBBoxToRectClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	r := BBoxToRect([]float64{-10, 50, 120, 200}, bounds)
	if r != image.Rect(0, 50, 100, 100) {
		t.Errorf("expected clamped rect, got %v", r)
	}

	if r := BBoxToRect([]float64{1, 2}, bounds); !r.Empty() {
		t.Errorf("malformed bbox should produce empty rect, got %v", r)
	}
}

func TestAnnotateDrawsBox(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 60, 60))
	out := Annotate(frame, []Annotation{
		{Box: image.Rect(10, 20, 50, 55), Label: "Ada"},
	})

	if got := out.RGBAAt(10, 20); got != boxColor {
		t.Errorf("expected box pixel at corner, got %v", got)
	}
	if got := out.RGBAAt(30, 30); got == boxColor {
		t.Error("box interior should not be filled")
	}
	// Input must stay untouched.
	if got := frame.RGBAAt(10, 20); got == boxColor {
		t.Error("Annotate must not modify the input frame")
	}
}

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect/faces" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(detectResponse{
			FacesCount: 1,
			Faces: []Detection{{
				FaceIndex: 0,
				Dim:       2,
				Embedding: []float32{0.1, 0.2},
				BBox:      []float64{5, 5, 20, 20},
				DetScore:  0.97,
			}},
			Model: "test",
		})
	}))
	defer server.Close()

	d := NewDetector(server.URL, "test")
	faces, err := d.DetectFaces(context.Background(), []byte("fake-jpeg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 1 || faces[0].BBox[2] != 20 {
		t.Errorf("unexpected detections: %+v", faces)
	}
}

func TestDetectFacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewDetector(server.URL, "test")
	if _, err := d.DetectFaces(context.Background(), []byte("x")); err == nil {
		t.Error("expected error for 500 response")
	}
}
