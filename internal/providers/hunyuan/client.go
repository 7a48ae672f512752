package hunyuan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ai3d/v20250513"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerr "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
)

// ErrMissingCredentials indicates that the client was configured without a key pair.
var ErrMissingCredentials = errors.New("hunyuan: secret id and secret key are required")

// API is the part of the Tencent Cloud ai3d SDK client used here.
type API interface {
	SubmitHunyuanTo3DJobWithContext(ctx context.Context, request *v20250513.SubmitHunyuanTo3DJobRequest) (*v20250513.SubmitHunyuanTo3DJobResponse, error)
	QueryHunyuanTo3DJobWithContext(ctx context.Context, request *v20250513.QueryHunyuanTo3DJobRequest) (*v20250513.QueryHunyuanTo3DJobResponse, error)
	SubmitHunyuanTo3DProJobWithContext(ctx context.Context, request *v20250513.SubmitHunyuanTo3DProJobRequest) (*v20250513.SubmitHunyuanTo3DProJobResponse, error)
	QueryHunyuanTo3DProJobWithContext(ctx context.Context, request *v20250513.QueryHunyuanTo3DProJobRequest) (*v20250513.QueryHunyuanTo3DProJobResponse, error)
}

// Options configures the Hunyuan-to-3D client.
type Options struct {
	SecretID  string
	SecretKey string
	Region    string
	Endpoint  string
	Timeout   time.Duration
	Logger    *infra.Logger

	// API replaces the SDK client, mainly for tests.
	API API
}

// Client submits generation jobs to Tencent Cloud and polls their state.
type Client struct {
	api     API
	region  string
	timeout time.Duration
	logger  *infra.Logger
}

type submitRequest struct {
	Prompt       string `json:"Prompt,omitempty"`
	ImageBase64  string `json:"ImageBase64,omitempty"`
	ResultFormat string `json:"ResultFormat,omitempty"`
	EnablePBR    bool   `json:"EnablePBR"`
}

// proSubmitRequest has no ResultFormat; the pro API picks its own output set.
type proSubmitRequest struct {
	Prompt       string `json:"Prompt,omitempty"`
	ImageBase64  string `json:"ImageBase64,omitempty"`
	EnablePBR    bool   `json:"EnablePBR"`
	FaceCount    *int64 `json:"FaceCount,omitempty"`
	GenerateType string `json:"GenerateType,omitempty"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "ap-guangzhou"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		api:     opts.API,
		region:  region,
		timeout: timeout,
		logger:  infra.LoggerOrDiscard(opts.Logger),
	}
	if c.api != nil {
		return c, nil
	}

	secretID := strings.TrimSpace(opts.SecretID)
	secretKey := strings.TrimSpace(opts.SecretKey)
	if secretID == "" || secretKey == "" {
		return nil, ErrMissingCredentials
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = "ai3d.tencentcloudapi.com"
	}

	httpProf := profile.NewHttpProfile()
	httpProf.Endpoint = endpoint
	httpProf.ReqTimeout = int(timeout / time.Second)
	cliProf := profile.NewClientProfile()
	cliProf.HttpProfile = httpProf

	api, err := v20250513.NewClient(common.NewCredential(secretID, secretKey), region, cliProf)
	if err != nil {
		return nil, fmt.Errorf("hunyuan: build sdk client: %w", err)
	}
	c.api = api
	return c, nil
}

// Region returns the configured API region.
func (c *Client) Region() string {
	return c.region
}

// Submit sends a normalized payload and returns the provider job id. Payloads
// carrying pro options go to the pro API.
func (c *Client) Submit(ctx context.Context, payload domain.SubmitPayload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		jobID, requestID string
		err              error
	)
	if payload.Edition() == domain.EditionPro {
		jobID, requestID, err = c.submitPro(ctx, payload)
	} else {
		jobID, requestID, err = c.submitStandard(ctx, payload)
	}
	if err != nil {
		return "", err
	}
	if jobID == "" {
		return "", &domain.ProviderError{Message: "submit job: empty job id in response"}
	}
	c.logger.Info().
		Str("job_id", jobID).
		Str("request_id", requestID).
		Str("edition", editionName(payload.Edition())).
		Str("result_format", payload.ResultFormat).
		Str("generate_type", payload.GenerateType).
		Bool("has_image", payload.ImageBase64 != "").
		Msg("hunyuan: job submitted")
	return jobID, nil
}

func (c *Client) submitStandard(ctx context.Context, payload domain.SubmitPayload) (string, string, error) {
	body, err := json.Marshal(submitRequest{
		Prompt:       strings.TrimSpace(payload.Prompt),
		ImageBase64:  payload.ImageBase64,
		ResultFormat: payload.ResultFormat,
		EnablePBR:    payload.EnablePBR,
	})
	if err != nil {
		return "", "", fmt.Errorf("hunyuan: encode request: %w", err)
	}
	req := v20250513.NewSubmitHunyuanTo3DJobRequest()
	if err := req.FromJsonString(string(body)); err != nil {
		return "", "", translateError("build submit request", err)
	}
	resp, err := c.api.SubmitHunyuanTo3DJobWithContext(ctx, req)
	if err != nil {
		return "", "", translateError("submit job", err)
	}
	if resp == nil || resp.Response == nil {
		return "", "", nil
	}
	return strVal(resp.Response.JobId), strVal(resp.Response.RequestId), nil
}

func (c *Client) submitPro(ctx context.Context, payload domain.SubmitPayload) (string, string, error) {
	body, err := json.Marshal(proSubmitRequest{
		Prompt:       strings.TrimSpace(payload.Prompt),
		ImageBase64:  payload.ImageBase64,
		EnablePBR:    payload.EnablePBR,
		FaceCount:    payload.FaceCount,
		GenerateType: payload.GenerateType,
	})
	if err != nil {
		return "", "", fmt.Errorf("hunyuan: encode pro request: %w", err)
	}
	req := v20250513.NewSubmitHunyuanTo3DProJobRequest()
	if err := req.FromJsonString(string(body)); err != nil {
		return "", "", translateError("build pro submit request", err)
	}
	resp, err := c.api.SubmitHunyuanTo3DProJobWithContext(ctx, req)
	if err != nil {
		return "", "", translateError("submit pro job", err)
	}
	if resp == nil || resp.Response == nil {
		return "", "", nil
	}
	return strVal(resp.Response.JobId), strVal(resp.Response.RequestId), nil
}

// Query fetches the current remote state of jobID through the API it was
// submitted to. It has no side effects on local state.
func (c *Client) Query(ctx context.Context, jobID string, edition domain.Edition) (domain.QueryResult, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return domain.QueryResult{}, domain.NewValidationError("job_id", "job_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		out domain.QueryResult
		err error
	)
	if edition == domain.EditionPro {
		out, err = c.queryPro(ctx, jobID)
	} else {
		out, err = c.queryStandard(ctx, jobID)
	}
	if err != nil {
		return domain.QueryResult{}, err
	}
	c.logger.Debug().
		Str("job_id", jobID).
		Str("edition", editionName(edition)).
		Str("status", string(out.Status)).
		Int("files", len(out.Files)).
		Msg("hunyuan: job queried")
	return out, nil
}

func (c *Client) queryStandard(ctx context.Context, jobID string) (domain.QueryResult, error) {
	req := v20250513.NewQueryHunyuanTo3DJobRequest()
	req.JobId = common.StringPtr(jobID)

	resp, err := c.api.QueryHunyuanTo3DJobWithContext(ctx, req)
	if err != nil {
		return domain.QueryResult{}, translateError("query job", err)
	}
	if resp == nil || resp.Response == nil {
		return domain.QueryResult{}, &domain.ProviderError{Message: "query job: empty response"}
	}
	r := resp.Response
	out := queryResult(r.Status, r.ErrorCode, r.ErrorMessage, r.RequestId)
	for _, f := range r.ResultFile3Ds {
		if f == nil {
			continue
		}
		out.Files = append(out.Files, domain.ResultFile{
			Type:       strVal(f.Type),
			URL:        strVal(f.Url),
			PreviewURL: strVal(f.PreviewImageUrl),
		})
	}
	return out, nil
}

func (c *Client) queryPro(ctx context.Context, jobID string) (domain.QueryResult, error) {
	req := v20250513.NewQueryHunyuanTo3DProJobRequest()
	req.JobId = common.StringPtr(jobID)

	resp, err := c.api.QueryHunyuanTo3DProJobWithContext(ctx, req)
	if err != nil {
		return domain.QueryResult{}, translateError("query pro job", err)
	}
	if resp == nil || resp.Response == nil {
		return domain.QueryResult{}, &domain.ProviderError{Message: "query pro job: empty response"}
	}
	r := resp.Response
	out := queryResult(r.Status, r.ErrorCode, r.ErrorMessage, r.RequestId)
	for _, f := range r.ResultFile3Ds {
		if f == nil {
			continue
		}
		out.Files = append(out.Files, domain.ResultFile{
			Type:       strVal(f.Type),
			URL:        strVal(f.Url),
			PreviewURL: strVal(f.PreviewImageUrl),
		})
	}
	return out, nil
}

func queryResult(status, code, message, requestID *string) domain.QueryResult {
	out := domain.QueryResult{
		Status:    domain.ParseJobStatus(strVal(status)),
		RequestID: strVal(requestID),
	}
	if c, m := strVal(code), strVal(message); c != "" || m != "" {
		out.Error = &domain.JobError{Code: c, Message: m}
	}
	return out
}

func editionName(e domain.Edition) string {
	if e == domain.EditionPro {
		return "pro"
	}
	return "standard"
}

// translateError turns SDK and transport failures into *domain.ProviderError.
func translateError(op string, err error) error {
	var sdkErr *tcerr.TencentCloudSDKError
	if errors.As(err, &sdkErr) {
		return &domain.ProviderError{
			Code:      sdkErr.GetCode(),
			Message:   sdkErr.GetMessage(),
			RequestID: sdkErr.GetRequestId(),
			Err:       err,
		}
	}
	return &domain.ProviderError{Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
