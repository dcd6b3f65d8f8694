package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // register BMP decoder, stdlib covers jpg/png/gif

	"github.com/objectscan/objectscan-go/internal/conf"
	"github.com/objectscan/objectscan-go/internal/errors"
	"github.com/objectscan/objectscan-go/internal/logging"
)

// RemoteDetector runs inference by posting images to a YOLO-style HTTP
// inference service. The service applies the confidence and IoU thresholds
// it is given; the client filters once more on the way out so a permissive
// server cannot leak weak detections into the sink.
type RemoteDetector struct {
	endpoint     string
	model        string
	confidence   float64
	overlap      float64
	maxDimension int
	client       *http.Client
	logger       *slog.Logger
}

// detectResponse is the inference service reply body.
type detectResponse struct {
	Model      string `json:"model"`
	Detections []struct {
		Class      string  `json:"class"`
		Confidence float64 `json:"confidence"`
	} `json:"detections"`
}

// NewRemote builds a detector client from settings. No network traffic
// happens here; call Initialize before the first Detect.
func NewRemote(settings *conf.DetectorSettings) (*RemoteDetector, error) {
	u, err := url.Parse(settings.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid detector endpoint %q", settings.Endpoint).
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}

	logger := logging.ForService("detector")
	if logger == nil {
		logger = slog.Default().With("service", "detector")
	}

	return &RemoteDetector{
		endpoint:     settings.Endpoint,
		model:        settings.Model,
		confidence:   settings.Confidence,
		overlap:      settings.Overlap,
		maxDimension: settings.MaxDimension,
		client: &http.Client{
			Timeout: time.Duration(settings.Timeout) * time.Second,
		},
		logger: logger,
	}, nil
}

// Initialize verifies the inference service is reachable and has the model
// loaded. A failure here aborts the whole pass before any image is touched.
func (rd *RemoteDetector) Initialize(ctx context.Context) error {
	healthURL, err := url.JoinPath(rd.endpoint, "..", "health")
	if err != nil {
		healthURL = rd.endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, http.NoBody)
	if err != nil {
		return errors.New(err).
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}
	req.URL.RawQuery = url.Values{"model": {rd.model}}.Encode()

	resp, err := rd.client.Do(req)
	if err != nil {
		return errors.Newf("inference service unreachable: %w", err).
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("endpoint", rd.endpoint).
			Build()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("inference service health check returned status %d", resp.StatusCode).
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("endpoint", rd.endpoint).
			Build()
	}

	rd.logger.Info("inference service ready", "endpoint", rd.endpoint, "model", rd.model)
	return nil
}

// Detect posts the image to the inference service and returns the surviving
// detections. The image is decoded locally first, both to reject corrupt
// files without a round trip and to downscale oversized uploads.
func (rd *RemoteDetector) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	payload, err := rd.encodePayload(imagePath)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("image", "image.jpg")
	if err == nil {
		_, err = part.Write(payload)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return nil, errors.Newf("%w: building request: %w", ErrDetectionFailed, err).
			Component("detector").
			Category(errors.CategoryDetection).
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rd.endpoint, body)
	if err != nil {
		return nil, errors.Newf("%w: %w", ErrDetectionFailed, err).
			Component("detector").
			Category(errors.CategoryDetection).
			Build()
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.URL.RawQuery = url.Values{
		"model": {rd.model},
		"conf":  {strconv.FormatFloat(rd.confidence, 'f', -1, 64)},
		"iou":   {strconv.FormatFloat(rd.overlap, 'f', -1, 64)},
	}.Encode()

	resp, err := rd.client.Do(req)
	if err != nil {
		return nil, errors.Newf("%w: %w", ErrDetectionFailed, err).
			Component("detector").
			Category(errors.CategoryDetection).
			Context("image", imagePath).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf("%w: inference service returned status %d: %s",
			ErrDetectionFailed, resp.StatusCode, bytes.TrimSpace(snippet)).
			Component("detector").
			Category(errors.CategoryDetection).
			Context("image", imagePath).
			Build()
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Newf("%w: decoding response: %w", ErrDetectionFailed, err).
			Component("detector").
			Category(errors.CategoryDetection).
			Context("image", imagePath).
			Build()
	}

	detections := make([]Detection, 0, len(parsed.Detections))
	for _, d := range parsed.Detections {
		if d.Confidence < rd.confidence {
			continue
		}
		detections = append(detections, Detection{
			Class:      d.Class,
			Confidence: d.Confidence,
		})
	}
	return detections, nil
}

// encodePayload decodes the image, downscales it when it exceeds the
// configured maximum dimension, and re-encodes it as JPEG for upload.
func (rd *RemoteDetector) encodePayload(imagePath string) ([]byte, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Newf("%w: %w", ErrDetectionFailed, err).
			Component("detector").
			Category(errors.CategoryFileIO).
			FileContext(imagePath, 0).
			Build()
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Newf("%w: decoding %s: %w", ErrDetectionFailed, imagePath, err).
			Component("detector").
			Category(errors.CategoryImageDecode).
			FileContext(imagePath, 0).
			Build()
	}

	bounds := img.Bounds()
	if rd.maxDimension > 0 && (bounds.Dx() > rd.maxDimension || bounds.Dy() > rd.maxDimension) {
		img = imaging.Fit(img, rd.maxDimension, rd.maxDimension, imaging.Lanczos)
		rd.logger.Debug("downscaled image for upload",
			"image", imagePath, "format", format,
			"width", bounds.Dx(), "height", bounds.Dy(), "max", rd.maxDimension)
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, errors.Newf("%w: encoding %s: %w", ErrDetectionFailed, imagePath, err).
			Component("detector").
			Category(errors.CategoryImageDecode).
			FileContext(imagePath, 0).
			Build()
	}
	return buf.Bytes(), nil
}

// String describes the detector for startup logs.
func (rd *RemoteDetector) String() string {
	return fmt.Sprintf("remote %s model=%s conf=%.2f iou=%.2f", rd.endpoint, rd.model, rd.confidence, rd.overlap)
}
