package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmcleod/redpost/internal/util"
)

const (
	uploadPermitPath = "/api/sns/web/v1/upload/web/permit?biz_name=spectrum&scene=video"
	createNotePath   = "/web_api/sns/v2/note"

	// MaxTitleRunes is the platform's title length ceiling. Longer titles are
	// rejected server-side, so the client truncates before transmission.
	MaxTitleRunes = 20

	postTimeLayout = "2006-01-02 15:04:05"
)

// SubmitRequest describes one video note submission.
type SubmitRequest struct {
	Title       string
	VideoPath   string
	Description string
	Topics      []Topic
	Private     bool

	// PostTime, when set, submits the note as a deferred publish at that
	// time instead of publishing immediately.
	PostTime time.Time
}

// NoteHandle identifies a submitted note.
type NoteHandle struct {
	ID    string `json:"note_id"`
	Score int    `json:"score,omitempty"`
}

type uploadPermit struct {
	FileID     string `json:"file_id"`
	UploadAddr string `json:"upload_addr"`
	Token      string `json:"token"`
}

// SubmitVideoNote uploads the video file and creates the note in one
// operation: obtain an upload permit, push the file bytes to the returned
// address, then create the note referencing the uploaded file. The title is
// normalized and truncated to the platform limit before transmission.
func (c *Client) SubmitVideoNote(ctx context.Context, req SubmitRequest) (*NoteHandle, error) {
	var permit uploadPermit
	if err := c.signedCall(ctx, http.MethodGet, uploadPermitPath, nil, &permit); err != nil {
		return nil, fmt.Errorf("requesting upload permit: %w", err)
	}

	if err := c.uploadFile(ctx, permit, req.VideoPath); err != nil {
		return nil, err
	}

	title := util.TruncateRunes(util.Normalize(req.Title), MaxTitleRunes)

	topics := req.Topics
	if topics == nil {
		topics = []Topic{}
	}

	common := map[string]any{
		"type":    "video",
		"note_id": "",
		"title":   title,
		"desc":    req.Description,
		"source":  `{"type":"web","ids":"","extraInfo":"{\"subType\":\"official\"}"}`,
		"privacy_info": map[string]any{
			"op_type": 1,
			"type":    boolToInt(req.Private),
		},
	}
	if !req.PostTime.IsZero() {
		common["post_time"] = req.PostTime.Format(postTimeLayout)
	}

	payload := map[string]any{
		"common": common,
		"topics": topics,
		"video_info": map[string]any{
			"file_id": permit.FileID,
		},
	}

	var handle NoteHandle
	if err := c.signedCall(ctx, http.MethodPost, createNotePath, payload, &handle); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return &handle, nil
}

// uploadFile streams the video bytes to the permit's upload address. The
// upload endpoint is a plain file server; it takes the permit token, not a
// request signature.
func (c *Client) uploadFile(ctx context.Context, permit uploadPermit, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening video file: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, permit.UploadAddr, f)
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("X-Cos-Security-Token", permit.Token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &PlatformError{Code: resp.StatusCode, Msg: "video upload rejected"}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
