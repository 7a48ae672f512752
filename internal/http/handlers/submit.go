package handlers

import (
	"errors"
	"net/http"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/ingest"
)

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

func (a *App) SubmitText(w http.ResponseWriter, r *http.Request) {
	var req submitTextReq
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	jobID, err := a.Jobs.SubmitText(r.Context(), ingest.TextInput{
		Prompt:       req.Prompt,
		ResultFormat: req.ResultFormat,
		EnablePBR:    req.EnablePBR.ptr(),
		ProOptions:   req.options(),
	})
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, submitResp{OK: true, JobID: jobID})
}

func (a *App) SubmitImageURL(w http.ResponseWriter, r *http.Request) {
	var req submitImageURLReq
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	jobID, err := a.Jobs.SubmitImageURL(r.Context(), ingest.ImageURLInput{
		ImageURL:     req.ImageURL,
		Prompt:       req.Prompt,
		ResultFormat: req.ResultFormat,
		EnablePBR:    req.EnablePBR.ptr(),
		ProOptions:   req.options(),
	})
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, submitResp{OK: true, JobID: jobID})
}

func (a *App) SubmitImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.writeError(w, r, domain.NewValidationError("file", "upload exceeds size limit"), http.StatusBadGateway)
			return
		}
		a.writeError(w, r, domain.NewValidationError("file", "expected multipart/form-data with a file field"), http.StatusBadGateway)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, domain.NewValidationError("file", "file is required"), http.StatusBadGateway)
		return
	}
	defer file.Close()

	pro, err := formProOptions(r)
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	jobID, err := a.Jobs.SubmitImage(r.Context(), ingest.UploadInput{
		Body:         file,
		Prompt:       r.FormValue("prompt"),
		ResultFormat: r.FormValue("result_format"),
		EnablePBR:    formBool(r, "enable_pbr"),
		ProOptions:   pro,
	})
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, submitResp{OK: true, JobID: jobID})
}
