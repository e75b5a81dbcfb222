package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/jonathan/hiring-pipeline/internal/types"
)

// maxCallbackBytes bounds analysis callback bodies.
const maxCallbackBytes = 4 << 20

// handleCreateProcess handles POST /processes
func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req types.CreateProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.service.CreateProcess(r.Context(), principal, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, p)
}

// handleGetProcess handles GET /processes/{id}
func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetProcess(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

// handleUpdateProcess handles PUT /processes/{id}
func (s *Server) handleUpdateProcess(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req types.UpdateProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.service.UpdateProcess(r.Context(), principal, r.PathValue("id"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// handleCreateCandidate handles POST /candidates
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req types.CreateCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.service.CreateCandidate(r.Context(), principal, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// handleGetCandidate handles GET /candidates/{id}
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// handleUploadCV handles POST /candidates/upload-cv. The resume is the first
// file part of a multipart form; optional fullName and email fields seed the
// candidate record.
func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		errorResponse(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	header := firstFile(r.MultipartForm)
	if header == nil {
		errorResponse(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	data, err := readPart(header)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	resp, err := s.service.UploadCV(r.Context(), principal, &types.CVUpload{
		FileName: header.Filename,
		Data:     data,
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusAccepted, resp)
}

// firstFile returns the first file part, ordering form fields by name so the
// choice is stable when several are sent.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if files := form.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleFeedback handles POST /feedback
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req types.FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.service.RecordFeedback(r.Context(), principal, &req); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]bool{"success": true})
}

// handleGetContext handles GET /context
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.GetStrategicContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sc)
}

// handleUpdateContext handles POST /context
func (s *Server) handleUpdateContext(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req types.StrategicContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sc, err := s.service.UpdateStrategicContext(r.Context(), principal, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sc)
}

// handleAnalysisCallback handles POST /n8n-callback/update-candidate, the
// analysis worker's report for one candidate.
func (s *Server) handleAnalysisCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, "callback body too large")
			return
		}
		writeError(w, &ErrBadRequest{Message: "failed to read request body"})
		return
	}

	if _, err := s.syncer.Apply(r.Context(), r.Header.Get("x-api-key"), body); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
