// ABOUTME: Clip uploader posting finished takes to an HTTP endpoint
// ABOUTME: Sends each clip as the multipart form field audio_data
package clips

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
)

// FormField is the multipart field carrying the WAV file
const FormField = "audio_data"

// Uploader posts clips to a URL
type Uploader struct {
	url    string
	client *http.Client
}

// NewUploader creates an uploader for url
func NewUploader(url string, timeout time.Duration) *Uploader {
	return &Uploader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Upload sends a clip and returns the response body
func (u *Uploader) Upload(ctx context.Context, clip *fourtrack.Clip) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FormField, clip.Timestamp()))
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, fmt.Errorf("failed to write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("Uploading clip %s to %s", clip.Filename(), u.url)
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload clip: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("clip upload failed: HTTP %d", resp.StatusCode)
	}

	log.Printf("Clip uploaded: %s", clip.Filename())
	return respBody, nil
}
