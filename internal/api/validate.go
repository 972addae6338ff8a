package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/plancheck/plancheck/internal/dxf"
	"github.com/plancheck/plancheck/internal/setback"
)

// Metric verdict labels.
const (
	verdictCompliant    = "compliant"
	verdictNonCompliant = "non_compliant"
	verdictError        = "error"
)

// errorResponse is the generic failure body for upstream and input errors.
type errorResponse struct {
	Error string `json:"error"`
}

// handleValidate accepts a multipart drawing upload, converts it to DXF,
// parses the entities and returns the compliance verdict. The uploaded
// bytes live in a temp file under the configured work dir for the duration
// of the request and are removed in all paths.
func (s *Server) handleValidate(c echo.Context) error {
	start := time.Now()

	fileHeader, err := c.FormFile("drawing")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "no drawing file provided; upload it as multipart field 'drawing'",
		})
	}

	if s.converter == nil {
		s.slogger.Error("validation requested but no converter configured")
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error: "conversion service is not configured",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "failed to read uploaded file",
		})
	}
	defer func() {
		_ = src.Close()
	}()

	tmpPath, err := s.spoolUpload(src)
	if err != nil {
		s.slogger.Error("failed to spool upload",
			"error", err,
			"filename", fileHeader.Filename)
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "failed to store uploaded file",
		})
	}
	// Temp file is removed regardless of outcome
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	drawing, err := os.ReadFile(tmpPath)
	if err != nil {
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "failed to read uploaded file",
		})
	}

	dxfBytes, err := s.converter.Convert(c.Request().Context(), drawing)
	if err != nil {
		s.slogger.Error("drawing conversion failed",
			"error", err,
			"filename", fileHeader.Filename,
			"size", fileHeader.Size)
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusBadGateway, errorResponse{
			Error: fmt.Sprintf("drawing conversion failed: %v", err),
		})
	}

	entities, err := dxf.Parse(bytes.NewReader(dxfBytes))
	if err != nil {
		s.slogger.Error("drawing parse failed",
			"error", err,
			"filename", fileHeader.Filename)
		if s.metrics != nil {
			s.metrics.Setback.RecordParseError()
		}
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error: fmt.Sprintf("failed to parse converted drawing: %v", err),
		})
	}

	if err := setback.ValidateEntities(entities); err != nil {
		s.slogger.Warn("drawing contains malformed entities",
			"error", err,
			"filename", fileHeader.Filename)
		s.recordVerdict(verdictError, start)
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error: fmt.Sprintf("drawing contains malformed entities: %v", err),
		})
	}

	if s.metrics != nil {
		s.metrics.Setback.RecordEntityCount(len(entities))
	}

	verdict := setback.EvaluateSetback(entities, s.settings.Setback.MinDistance)

	label := verdictNonCompliant
	if verdict.Compliant {
		label = verdictCompliant
	}
	s.recordVerdict(label, start)

	s.slogger.Info("drawing validated",
		"filename", fileHeader.Filename,
		"entities", len(entities),
		"compliant", verdict.Compliant,
		"duration_ms", time.Since(start).Milliseconds())

	return c.JSON(http.StatusOK, verdict)
}

// spoolUpload writes the uploaded stream to a uniquely named temp file in
// the configured work dir and returns its path.
func (s *Server) spoolUpload(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.settings.WorkDir, "plancheck-"+uuid.NewString()+"-*.dwg")
	if err != nil {
		return "", err
	}

	_, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return "", copyErr
		}
		return "", closeErr
	}

	return tmp.Name(), nil
}

// recordVerdict updates validation metrics if metrics are configured.
func (s *Server) recordVerdict(label string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Setback.RecordValidation(label)
	s.metrics.Setback.RecordValidationDuration(time.Since(start).Seconds())
}
