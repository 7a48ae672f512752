// Package ingest turns the three client input shapes (text prompt, remote
// image URL, uploaded image) into a single provider submission.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
)

// ResultFormats lists the output formats accepted by the provider.
var ResultFormats = []string{"OBJ", "GLB", "STL", "USDZ", "FBX", "MP4"}

const (
	defaultResultFormat  = "GLB"
	defaultFetchTimeout  = 60 * time.Second
	defaultMaxImageBytes = 10 << 20
)

// Submitter is the provider call the adapter funnels every input into.
type Submitter interface {
	Submit(ctx context.Context, payload domain.SubmitPayload) (string, error)
}

// Options configures an Adapter.
type Options struct {
	Submitter           Submitter
	HTTPClient          *http.Client
	FetchTimeout        time.Duration
	MaxImageBytes       int64
	TempDir             string
	DefaultResultFormat string
	DefaultEnablePBR    bool
	Logger              *infra.Logger
}

// Adapter normalizes submissions and forwards them to the provider.
type Adapter struct {
	submitter     Submitter
	httpClient    *http.Client
	fetchTimeout  time.Duration
	maxImageBytes int64
	tempDir       string
	defaultFormat string
	defaultPBR    bool
	validate      *validator.Validate
	logger        *infra.Logger
}

// ProOptions selects the pro API. Leaving both fields unset keeps the
// standard API.
type ProOptions struct {
	FaceCount    *int64
	GenerateType string
}

// Edition reports the provider API the options select.
func (o ProOptions) Edition() domain.Edition {
	if o.FaceCount != nil || strings.TrimSpace(o.GenerateType) != "" {
		return domain.EditionPro
	}
	return domain.EditionStandard
}

// TextInput is a text-to-3D request.
type TextInput struct {
	Prompt       string
	ResultFormat string
	EnablePBR    *bool
	ProOptions
}

// ImageURLInput is an image-to-3D request whose image lives at a remote URL.
type ImageURLInput struct {
	ImageURL     string
	Prompt       string
	ResultFormat string
	EnablePBR    *bool
	ProOptions
}

// UploadInput is an image-to-3D request carrying the image bytes.
type UploadInput struct {
	Body         io.Reader
	Prompt       string
	ResultFormat string
	EnablePBR    *bool
	ProOptions
}

// NewAdapter constructs an Adapter, filling defaults for unset options.
func NewAdapter(opts Options) (*Adapter, error) {
	if opts.Submitter == nil {
		return nil, errors.New("ingest: submitter is required")
	}
	a := &Adapter{
		submitter:     opts.Submitter,
		httpClient:    opts.HTTPClient,
		fetchTimeout:  opts.FetchTimeout,
		maxImageBytes: opts.MaxImageBytes,
		tempDir:       opts.TempDir,
		defaultFormat: strings.ToUpper(strings.TrimSpace(opts.DefaultResultFormat)),
		defaultPBR:    opts.DefaultEnablePBR,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        infra.LoggerOrDiscard(opts.Logger),
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{}
	}
	if a.fetchTimeout <= 0 {
		a.fetchTimeout = defaultFetchTimeout
	}
	if a.maxImageBytes <= 0 {
		a.maxImageBytes = defaultMaxImageBytes
	}
	if a.defaultFormat == "" {
		a.defaultFormat = defaultResultFormat
	}
	if _, err := a.resultFormat(a.defaultFormat); err != nil {
		return nil, fmt.Errorf("ingest: default result format: %w", err)
	}
	return a, nil
}

// FromText submits a text prompt.
func (a *Adapter) FromText(ctx context.Context, in TextInput) (string, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return "", domain.NewValidationError("prompt", "prompt is required")
	}
	format, err := a.resultFormat(in.ResultFormat)
	if err != nil {
		return "", err
	}
	pro, err := a.proOptions(in.ProOptions, false, "")
	if err != nil {
		return "", err
	}
	return a.submit(ctx, pro.apply(domain.SubmitPayload{
		Prompt:       prompt,
		ResultFormat: format,
		EnablePBR:    a.enablePBR(in.EnablePBR),
	}))
}

// FromUpload base64-encodes the image body and submits it.
func (a *Adapter) FromUpload(ctx context.Context, in UploadInput) (string, error) {
	if in.Body == nil {
		return "", domain.NewValidationError("file", "file is required")
	}
	format, err := a.resultFormat(in.ResultFormat)
	if err != nil {
		return "", err
	}
	pro, err := a.proOptions(in.ProOptions, true, in.Prompt)
	if err != nil {
		return "", err
	}
	encoded, err := a.encodeImage(in.Body)
	if err != nil {
		return "", err
	}
	return a.submit(ctx, pro.apply(domain.SubmitPayload{
		Prompt:       strings.TrimSpace(in.Prompt),
		ImageBase64:  encoded,
		ResultFormat: format,
		EnablePBR:    a.enablePBR(in.EnablePBR),
	}))
}

// FromImageURL downloads the image to a temporary file and submits it through
// the upload path. The temporary file never outlives the call.
func (a *Adapter) FromImageURL(ctx context.Context, in ImageURLInput) (string, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return "", domain.NewValidationError("image_url", "image_url is required")
	}
	if err := a.validate.Var(imageURL, "http_url"); err != nil {
		return "", domain.NewValidationError("image_url", "image_url must be an absolute http(s) URL")
	}
	format, err := a.resultFormat(in.ResultFormat)
	if err != nil {
		return "", err
	}
	pro, err := a.proOptions(in.ProOptions, true, in.Prompt)
	if err != nil {
		return "", err
	}

	tmpPath, err := a.fetchToTemp(ctx, imageURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			a.logger.Warn().Err(rmErr).Str("path", tmpPath).Msg("ingest: remove temp image")
		}
	}()

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ingest: open temp image: %w", err)
	}
	defer f.Close()

	return a.FromUpload(ctx, UploadInput{
		Body:         f,
		Prompt:       in.Prompt,
		ResultFormat: format,
		EnablePBR:    in.EnablePBR,
		ProOptions:   pro,
	})
}

func (a *Adapter) submit(ctx context.Context, payload domain.SubmitPayload) (string, error) {
	jobID, err := a.submitter.Submit(ctx, payload)
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// resultFormat upper-cases the requested format, falling back to the default.
func (a *Adapter) resultFormat(raw string) (string, error) {
	format := strings.ToUpper(strings.TrimSpace(raw))
	if format == "" {
		format = a.defaultFormat
	}
	if err := a.validate.Var(format, "oneof="+strings.Join(ResultFormats, " ")); err != nil {
		return "", domain.NewValidationError("result_format",
			fmt.Sprintf("unsupported result_format %q (want one of %s)", format, strings.Join(ResultFormats, ", ")))
	}
	return format, nil
}

// proOptions validates the pro API options and fills the default generation
// type. The pro API takes either a prompt or an image, never both.
func (a *Adapter) proOptions(in ProOptions, hasImage bool, prompt string) (ProOptions, error) {
	if in.Edition() != domain.EditionPro {
		return ProOptions{}, nil
	}
	if hasImage && strings.TrimSpace(prompt) != "" {
		return ProOptions{}, domain.NewValidationError("prompt", "prompt cannot be combined with an image when face_count or generate_type is set")
	}
	out := ProOptions{GenerateType: domain.GenerateNormal}
	if raw := strings.TrimSpace(in.GenerateType); raw != "" {
		out.GenerateType = raw
		for _, t := range domain.GenerateTypes {
			if strings.EqualFold(t, raw) {
				out.GenerateType = t
				break
			}
		}
		if err := a.validate.Var(out.GenerateType, "oneof="+strings.Join(domain.GenerateTypes, " ")); err != nil {
			return ProOptions{}, domain.NewValidationError("generate_type",
				fmt.Sprintf("unsupported generate_type %q (want one of %s)", raw, strings.Join(domain.GenerateTypes, ", ")))
		}
	}
	if in.FaceCount != nil {
		faces := *in.FaceCount
		if err := a.validate.Var(faces, fmt.Sprintf("min=%d,max=%d", domain.MinFaceCount, domain.MaxFaceCount)); err != nil {
			return ProOptions{}, domain.NewValidationError("face_count",
				fmt.Sprintf("face_count must be between %d and %d", domain.MinFaceCount, domain.MaxFaceCount))
		}
		out.FaceCount = &faces
	}
	return out, nil
}

// apply copies validated pro options onto p. Geometry jobs never use PBR.
func (o ProOptions) apply(p domain.SubmitPayload) domain.SubmitPayload {
	if o.Edition() != domain.EditionPro {
		return p
	}
	p.FaceCount = o.FaceCount
	p.GenerateType = o.GenerateType
	if o.GenerateType == domain.GenerateGeometry {
		p.EnablePBR = false
	}
	return p
}

func (a *Adapter) enablePBR(v *bool) bool {
	if v == nil {
		return a.defaultPBR
	}
	return *v
}

func (a *Adapter) encodeImage(r io.Reader) (string, error) {
	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	n, err := io.Copy(enc, io.LimitReader(r, a.maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("ingest: read image: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("ingest: encode image: %w", err)
	}
	switch {
	case n == 0:
		return "", domain.NewValidationError("file", "file is empty")
	case n > a.maxImageBytes:
		return "", domain.NewValidationError("file", fmt.Sprintf("image exceeds %d bytes", a.maxImageBytes))
	}
	return sb.String(), nil
}
