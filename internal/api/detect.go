package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/ecotrack/ecotrack/internal/detect"
	"github.com/ecotrack/ecotrack/internal/imaging"
	"github.com/ecotrack/ecotrack/internal/metrics"
)

// maxUploadSize limits detection uploads to 5 MB.
const maxUploadSize = 5 << 20

// DetectHandler handles the image detection endpoint.
type DetectHandler struct {
	Detector detect.Detector
}

// Detect handles POST /api/detect. Expects a multipart form with the
// image in the ewasteImage field. Any non-empty upload yields a label;
// decoding is best-effort preprocessing, not a gate.
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("ewasteImage")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "no image file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusBadRequest, "no image file uploaded")
		return
	}

	// Downscale decodable uploads for the detector. Uploads that don't
	// decode as images are still labeled, just without pixels attached.
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		img = nil
	}

	label, err := h.Detector.Detect(r.Context(), img)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	metrics.Detections.Inc()
	jsonResponse(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("AI detected: %s.", label),
	})
}
