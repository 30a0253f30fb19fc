package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/redpost/session"
	"github.com/jmcleod/redpost/sign"
)

type fakeSigner struct {
	err   error
	calls int
	last  sign.Request
}

func (f *fakeSigner) Sign(_ context.Context, req sign.Request) (sign.Result, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return sign.Result{}, f.err
	}
	return sign.Result{Signature: "test-sig", Timestamp: "1700000000000"}, nil
}

type staticSessions struct {
	sess *session.Session
}

func (s staticSessions) Load() (*session.Session, error) {
	return s.sess, nil
}

func testSession() *session.Session {
	return &session.Session{Cookies: []session.Cookie{
		{Name: "a1", Value: "a1val", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "web_session", Value: "wsval", Domain: ".xiaohongshu.com", Path: "/"},
	}}
}

func okEnvelope(data any) []byte {
	body, _ := json.Marshal(map[string]any{"code": 0, "success": true, "msg": "成功", "data": data})
	return body
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeSigner) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	signer := &fakeSigner{}
	c := New(signer, staticSessions{sess: testSession()}, WithBaseURL(srv.URL))
	return c, signer
}

func TestSignedCallAttachesSignatureAndCookies(t *testing.T) {
	var got http.Header
	c, signer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write(okEnvelope(nil))
	}))

	assert.True(t, c.Probe(context.Background()))
	assert.Equal(t, "test-sig", got.Get("X-s"))
	assert.Equal(t, "1700000000000", got.Get("X-t"))
	assert.Equal(t, "a1=a1val; web_session=wsval", got.Get("Cookie"))

	// The signer saw the session identifiers and the request URI.
	assert.Equal(t, "a1val", signer.last.A1)
	assert.Equal(t, "wsval", signer.last.WebSession)
	assert.Contains(t, signer.last.URI, "video_id=3214")
}

func TestProbeFalseOnUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	assert.False(t, c.Probe(context.Background()))
}

func TestProbeFalseOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := New(&fakeSigner{}, staticSessions{sess: testSession()}, WithBaseURL(srv.URL))
	assert.False(t, c.Probe(context.Background()))
}

func TestSignedCallOracleFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued when signing fails")
	}))
	t.Cleanup(srv.Close)

	signer := &fakeSigner{err: fmt.Errorf("%w: 10 attempts", sign.ErrOracleUnavailable)}
	c := New(signer, staticSessions{sess: testSession()}, WithBaseURL(srv.URL))

	_, err := c.ResolveTopic(context.Background(), "life")
	assert.ErrorIs(t, err, sign.ErrOracleUnavailable)
}

func TestResolveTopicTakesFirstSuggestion(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "life", payload["keyword"])

		w.Write(okEnvelope(map[string]any{"topic_info_dtos": []map[string]any{
			{"id": "t1", "name": "LifeOfficial", "view_num": 12345},
			{"id": "t2", "name": "LifeSecond"},
		}}))
	}))

	topic, err := c.ResolveTopic(context.Background(), "life")
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, "t1", topic.ID)
	assert.Equal(t, "LifeOfficial", topic.Name)
	assert.Equal(t, "topic", topic.Type)
}

func TestResolveTopicNoSuggestionsIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(okEnvelope(map[string]any{"topic_info_dtos": []map[string]any{}}))
	}))

	topic, err := c.ResolveTopic(context.Background(), "nosuchtag")
	require.NoError(t, err)
	assert.Nil(t, topic)
}

func TestSignedCallSessionExpiredCode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": -100, "success": false, "msg": "登录已过期"})
	}))

	_, err := c.ResolveTopic(context.Background(), "life")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSignedCallPlatformRejection(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 10001, "success": false, "msg": "note illegal"})
	}))

	_, err := c.ResolveTopic(context.Background(), "life")
	var pe *PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 10001, pe.Code)
	assert.Equal(t, "note illegal", pe.Msg)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

// fakePlatform wires the three submission endpoints of one video publish.
type fakePlatform struct {
	t          *testing.T
	srv        *httptest.Server
	uploaded   []byte
	createBody map[string]any
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	p := &fakePlatform{t: t}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sns/web/v1/upload/web/permit", func(w http.ResponseWriter, r *http.Request) {
		w.Write(okEnvelope(map[string]any{
			"file_id":     "file-123",
			"upload_addr": p.srv.URL + "/upload/file-123",
			"token":       "upload-token",
		}))
	})
	mux.HandleFunc("/upload/file-123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "upload-token", r.Header.Get("X-Cos-Security-Token"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		p.uploaded = body
	})
	mux.HandleFunc("/web_api/sns/v2/note", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p.createBody))
		w.Write(okEnvelope(map[string]any{"note_id": "note-789", "score": 90}))
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePlatform) client() *Client {
	return New(&fakeSigner{}, staticSessions{sess: testSession()}, WithBaseURL(p.srv.URL))
}

func (p *fakePlatform) common() map[string]any {
	common, ok := p.createBody["common"].(map[string]any)
	require.True(p.t, ok, "create payload missing common block")
	return common
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake mp4 bytes"), 0o600))
	return path
}

func TestSubmitVideoNote(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	handle, err := c.SubmitVideoNote(context.Background(), SubmitRequest{
		Title:       "Hi",
		VideoPath:   writeTempVideo(t),
		Description: "content #extra1",
		Topics:      []Topic{{ID: "t1", Name: "Life", Type: "topic"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "note-789", handle.ID)

	assert.Equal(t, []byte("fake mp4 bytes"), p.uploaded)

	common := p.common()
	assert.Equal(t, "video", common["type"])
	assert.Equal(t, "Hi", common["title"])
	assert.Equal(t, "content #extra1", common["desc"])
	_, hasPostTime := common["post_time"]
	assert.False(t, hasPostTime, "immediate publish must not carry post_time")

	videoInfo, ok := p.createBody["video_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "file-123", videoInfo["file_id"])
}

func TestSubmitVideoNoteTruncatesTitle(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	long := "this title is much longer than twenty characters"
	_, err := c.SubmitVideoNote(context.Background(), SubmitRequest{
		Title:     long,
		VideoPath: writeTempVideo(t),
	})
	require.NoError(t, err)

	title, _ := p.common()["title"].(string)
	assert.Len(t, []rune(title), MaxTitleRunes)
	assert.Equal(t, string([]rune(long)[:MaxTitleRunes]), title)
}

func TestSubmitVideoNoteSchedulePassesThrough(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	at := time.Date(2025, 7, 1, 18, 30, 0, 0, time.Local)
	_, err := c.SubmitVideoNote(context.Background(), SubmitRequest{
		Title:     "Hi",
		VideoPath: writeTempVideo(t),
		PostTime:  at,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01 18:30:00", p.common()["post_time"])
}

func TestSubmitVideoNoteMissingFile(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	_, err := c.SubmitVideoNote(context.Background(), SubmitRequest{
		Title:     "Hi",
		VideoPath: filepath.Join(t.TempDir(), "missing.mp4"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
