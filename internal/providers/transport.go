package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// SigningTransport is an http.RoundTripper that signs requests with AWS
// SigV4 for the bedrock-runtime service. Credentials come from the
// standard AWS credential chain.
type SigningTransport struct {
	credentials aws.CredentialsProvider
	region      string
	signer      *v4.Signer
	base        http.RoundTripper
}

// NewSigningTransport loads AWS credentials and returns a transport that
// signs every request for bedrock-runtime in the given region. A nil
// base uses http.DefaultTransport.
func NewSigningTransport(ctx context.Context, region string, base http.RoundTripper) (*SigningTransport, error) {
	if base == nil {
		base = http.DefaultTransport
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("providers: load AWS config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("providers: retrieve AWS credentials: %w", err)
	}

	return &SigningTransport{
		credentials: cfg.Credentials,
		region:      region,
		signer:      v4.NewSigner(),
		base:        base,
	}, nil
}

// RoundTrip signs the request with SigV4 and forwards it to the base
// transport. The body is buffered because signing needs its hash.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("providers: read body for signing: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("providers: retrieve AWS credentials: %w", err)
	}

	payloadHash := fmt.Sprintf("%x", sha256.Sum256(body))
	if err := t.signer.SignHTTP(req.Context(), creds, req, payloadHash, "bedrock", t.region, time.Now()); err != nil {
		return nil, fmt.Errorf("providers: sign request: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	return t.base.RoundTrip(req)
}
