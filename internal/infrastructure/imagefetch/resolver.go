// Package imagefetch inlines image attachments for the upstream model.
package imagefetch

import (
	"context"
	"encoding/base64"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

const defaultMIME = "image/jpeg"

var mimeByExtension = map[string]string{
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Resolver turns attachment references into data URIs the completion API can
// consume inline.
type Resolver interface {
	Resolve(ctx context.Context, ref string) string
}

type httpResolver struct {
	client  *resty.Client
	maxSize int64
	log     zerolog.Logger
}

// NewResolver builds an HTTP-backed resolver. Remote fetches are bounded by
// timeout and maxSize so one slow attachment cannot stall a chat turn.
func NewResolver(timeout time.Duration, maxSize int64, log zerolog.Logger) Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpResolver{
		client:  resty.New().SetTimeout(timeout),
		maxSize: maxSize,
		log:     log.With().Str("component", "image-resolver").Logger(),
	}
}

// Resolve inlines a remote image as a base64 data URI. References that are
// already data URIs pass through untouched. Resolution is best effort: on any
// failure the original reference is returned so the turn still reaches the
// model, just without inlined bytes.
func (r *httpResolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}

	resp, err := r.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		r.log.Warn().Err(err).Str("ref", ref).Msg("image fetch failed, passing reference through")
		return ref
	}
	if resp.IsError() {
		r.log.Warn().Int("status", resp.StatusCode()).Str("ref", ref).Msg("image fetch returned error status, passing reference through")
		return ref
	}

	body := resp.Bytes()
	if len(body) == 0 {
		r.log.Warn().Str("ref", ref).Msg("image fetch returned empty body, passing reference through")
		return ref
	}
	if r.maxSize > 0 && int64(len(body)) > r.maxSize {
		r.log.Warn().Int("size", len(body)).Str("ref", ref).Msg("image exceeds size limit, passing reference through")
		return ref
	}

	return "data:" + mimeFromRef(ref) + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// mimeFromRef guesses the content type from the URL path extension. Unknown
// extensions fall back to JPEG, which the completion API accepts for sniffing.
func mimeFromRef(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return defaultMIME
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return defaultMIME
}
