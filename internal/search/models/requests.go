package models

import (
	"net/http"
	"time"

	id "pastcheck/pkg/domain"
	dErrors "pastcheck/pkg/domain-errors"
)

// MaxPhotoBytes bounds accepted photo uploads.
const MaxPhotoBytes = 5 << 20

// dobLayout is the wire format for dates of birth.
const dobLayout = "2006-01-02"

// NewSearchRequest validates raw submission fields and builds a SearchRequest.
// Optional fields arrive as empty strings and become nil.
//
// Errors: CodeBadRequest on missing name, missing or malformed dob, or an
// unrecognized state.
func NewSearchRequest(name, dob, state, email, phone string) (SearchRequest, error) {
	if name == "" {
		return SearchRequest{}, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if dob == "" {
		return SearchRequest{}, dErrors.New(dErrors.CodeBadRequest, "dob is required")
	}
	born, err := time.Parse(dobLayout, dob)
	if err != nil {
		return SearchRequest{}, dErrors.New(dErrors.CodeBadRequest, "dob must be formatted YYYY-MM-DD")
	}

	req := SearchRequest{Name: name, DOB: born}
	if state != "" {
		jurisdiction, err := id.ParseJurisdiction(state)
		if err != nil {
			return SearchRequest{}, err
		}
		req.State = &jurisdiction
	}
	if email != "" {
		req.Email = &email
	}
	if phone != "" {
		req.Phone = &phone
	}
	return req, nil
}

// ValidatePhoto enforces the upload contract: at most MaxPhotoBytes and a
// JPEG or PNG payload. The content type is sniffed from the bytes, not taken
// from the client-supplied header.
func ValidatePhoto(data []byte) error {
	if len(data) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "photo is empty")
	}
	if len(data) > MaxPhotoBytes {
		return dErrors.New(dErrors.CodeBadRequest, "photo exceeds 5MB limit")
	}
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
		return nil
	default:
		return dErrors.New(dErrors.CodeBadRequest, "photo must be JPEG or PNG")
	}
}

// FormatDOB renders a date of birth in the wire format.
func FormatDOB(t time.Time) string {
	return t.Format(dobLayout)
}

// CreateSearchResponse is returned by POST /api/search.
type CreateSearchResponse struct {
	JobID string `json:"job_id"`
	Status string `json:"status"`
	// EstimatedTime is a rough completion hint in seconds.
	EstimatedTime int    `json:"estimated_time"`
	StatusURL     string `json:"status_url"`
}

// StatusResponse is returned by GET /api/search/{id}/status.
type StatusResponse struct {
	Status    Status   `json:"status"`
	Progress  Progress `json:"progress"`
	ResultURL *string  `json:"result_url,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// ErrorResponse is the JSON error envelope shared by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
