// Package publish turns a content draft into a submitted or scheduled
// platform post through an ordered sequence of steps, recording exactly one
// outcome per attempt.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Request is one user-supplied publish request. Tag order is preserved;
// duplicates are allowed and deduplicated before topic resolution.
type Request struct {
	Title      string
	Body       string
	Tags       []string
	MediaPath  string
	Private    bool
	ScheduleAt time.Time // zero means publish immediately
}

// allowedMediaExts is the accepted set of video container extensions.
var allowedMediaExts = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
}

// ValidationError reports bad or missing input, caught before any network
// effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the request's local invariants. It does not touch the
// network; the schedule gate is checked separately at submission time.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.Body) == "" {
		return &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if r.MediaPath == "" {
		return &ValidationError{Field: "media_path", Reason: "must not be empty"}
	}

	ext := strings.ToLower(filepath.Ext(r.MediaPath))
	if !allowedMediaExts[ext] {
		return &ValidationError{Field: "media_path", Reason: fmt.Sprintf("unsupported format %q, want one of .mp4 .mov .avi", ext)}
	}

	info, err := os.Stat(r.MediaPath)
	if err != nil {
		return &ValidationError{Field: "media_path", Reason: fmt.Sprintf("file not accessible: %v", err)}
	}
	if info.IsDir() {
		return &ValidationError{Field: "media_path", Reason: "is a directory"}
	}
	return nil
}

// dedupeTags returns the distinct tags in first-seen order, skipping blanks.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
