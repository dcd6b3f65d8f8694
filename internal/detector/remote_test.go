package detector

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/errors"
)

func testSettings() *conf.DetectorSettings {
	return &conf.DetectorSettings{
		Endpoint:     "http://detector.local/detect",
		Model:        "yolov8n",
		Confidence:   0.25,
		Overlap:      0.70,
		Timeout:      5,
		MaxDimension: 1280,
	}
}

// writeTestImage writes a small valid PNG to dir and returns its path.
func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 100, A: 255})
		}
	}
	path := filepath.Join(dir, "chan1_555_photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newMockedDetector(t *testing.T) *RemoteDetector {
	t.Helper()
	rd, err := NewRemote(testSettings())
	require.NoError(t, err)
	httpmock.ActivateNonDefault(rd.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return rd
}

func TestNewRemoteRejectsBadEndpoint(t *testing.T) {
	settings := testSettings()
	settings.Endpoint = "not a url"

	_, err := NewRemote(settings)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryModelInit))
}

func TestInitialize(t *testing.T) {
	rd := newMockedDetector(t)
	httpmock.RegisterResponder("GET", `=~^http://detector\.local/health`,
		httpmock.NewStringResponder(200, `{"status":"ok"}`))

	require.NoError(t, rd.Initialize(context.Background()))
}

func TestInitializeFailsWhenServiceUnhealthy(t *testing.T) {
	rd := newMockedDetector(t)
	httpmock.RegisterResponder("GET", `=~^http://detector\.local/health`,
		httpmock.NewStringResponder(503, `{"status":"loading"}`))

	err := rd.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryModelInit))
}

func TestDetectParsesResponse(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		httpmock.NewStringResponder(200,
			`{"model":"yolov8n","detections":[{"class":"car","confidence":0.81},{"class":"person","confidence":0.40}]}`))

	detections, err := rd.Detect(context.Background(), imagePath)
	require.NoError(t, err)

	require.Len(t, detections, 2)
	assert.Equal(t, Detection{Class: "car", Confidence: 0.81}, detections[0])
	assert.Equal(t, Detection{Class: "person", Confidence: 0.40}, detections[1])
}

func TestDetectFiltersWeakDetections(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	// A permissive server may return detections below the requested
	// confidence threshold; the client must drop them.
	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		httpmock.NewStringResponder(200,
			`{"model":"yolov8n","detections":[{"class":"car","confidence":0.81},{"class":"bicycle","confidence":0.10}]}`))

	detections, err := rd.Detect(context.Background(), imagePath)
	require.NoError(t, err)

	require.Len(t, detections, 1)
	assert.Equal(t, "car", detections[0].Class)
}

func TestDetectEmptyResult(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		httpmock.NewStringResponder(200, `{"model":"yolov8n","detections":[]}`))

	detections, err := rd.Detect(context.Background(), imagePath)
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestDetectServerError(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		httpmock.NewStringResponder(500, `internal error`))

	_, err := rd.Detect(context.Background(), imagePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectionFailed)
}

func TestDetectMalformedResponse(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		httpmock.NewStringResponder(200, `not json`))

	_, err := rd.Detect(context.Background(), imagePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectionFailed)
}

func TestDetectCorruptImage(t *testing.T) {
	rd := newMockedDetector(t)

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "chan1_555_photo.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("this is not an image"), 0o644))

	_, err := rd.Detect(context.Background(), imagePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectionFailed)
	assert.True(t, errors.HasCategory(err, errors.CategoryImageDecode))
	assert.Zero(t, httpmock.GetTotalCallCount(), "corrupt images must be rejected without a round trip")
}

func TestDetectMissingFile(t *testing.T) {
	rd := newMockedDetector(t)

	_, err := rd.Detect(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectionFailed)
}

func TestDetectSendsThresholds(t *testing.T) {
	rd := newMockedDetector(t)
	imagePath := writeTestImage(t, t.TempDir())

	var gotConf, gotIoU string
	httpmock.RegisterResponder("POST", `=~^http://detector\.local/detect`,
		func(req *http.Request) (*http.Response, error) {
			gotConf = req.URL.Query().Get("conf")
			gotIoU = req.URL.Query().Get("iou")
			return httpmock.NewStringResponse(200, `{"model":"yolov8n","detections":[]}`), nil
		})

	_, err := rd.Detect(context.Background(), imagePath)
	require.NoError(t, err)
	assert.Equal(t, "0.25", gotConf)
	assert.Equal(t, "0.7", gotIoU)
}
