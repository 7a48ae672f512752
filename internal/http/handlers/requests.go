package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/ingest"
)

const maxJSONBodyBytes = 1 << 20

// flexBool accepts true/false as JSON booleans, strings or numbers.
type flexBool struct {
	set   bool
	value bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = flexBool{}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool{set: true, value: t}
	case float64:
		*b = flexBool{set: true, value: t != 0}
	case string:
		*b = flexBool{set: true, value: infra.ParseBool(t, false)}
	default:
		return fmt.Errorf("enable_pbr: unsupported value %s", data)
	}
	return nil
}

func (b flexBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// proFields are the optional pro API options shared by the JSON submit bodies.
type proFields struct {
	FaceCount    *int64 `json:"face_count"`
	GenerateType string `json:"generate_type"`
}

func (p proFields) options() ingest.ProOptions {
	return ingest.ProOptions{FaceCount: p.FaceCount, GenerateType: p.GenerateType}
}

type submitTextReq struct {
	Prompt       string   `json:"prompt"`
	ResultFormat string   `json:"result_format"`
	EnablePBR    flexBool `json:"enable_pbr"`
	proFields
}

type submitImageURLReq struct {
	ImageURL     string   `json:"image_url"`
	Prompt       string   `json:"prompt"`
	ResultFormat string   `json:"result_format"`
	EnablePBR    flexBool `json:"enable_pbr"`
	proFields
}

type submitResp struct {
	OK    bool   `json:"ok"`
	JobID string `json:"job_id"`
}

// decodeJSON reads a JSON object body. An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return domain.NewValidationError("body", "request body too large or unreadable")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.NewValidationError("body", "invalid JSON body: "+err.Error())
	}
	return nil
}

// formBool parses an optional boolean form value.
func formBool(r *http.Request, key string) *bool {
	raw, ok := r.MultipartForm.Value[key]
	if !ok || len(raw) == 0 || raw[0] == "" {
		return nil
	}
	v := infra.ParseBool(raw[0], false)
	return &v
}

// formProOptions reads face_count and generate_type from a multipart form.
func formProOptions(r *http.Request) (ingest.ProOptions, error) {
	opts := ingest.ProOptions{GenerateType: r.FormValue("generate_type")}
	raw := strings.TrimSpace(r.FormValue("face_count"))
	if raw == "" {
		return opts, nil
	}
	faces, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ingest.ProOptions{}, domain.NewValidationError("face_count", "face_count must be an integer")
	}
	opts.FaceCount = &faces
	return opts, nil
}

func parseIndex(raw string) (int, error) {
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("index", "index must be an integer")
	}
	return idx, nil
}
