package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartBody(t *testing.T, filename string, content []byte, folder string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	}
	if folder != "" {
		mw.WriteField("folder", folder)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte, folder string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, folder)
	req := httptest.NewRequest("POST", "/api/admin/upload/image", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token(t))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

type uploadEnvelope struct {
	Success bool           `json:"success"`
	Data    uploadResponse `json:"data"`
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.upload(t, "photo.PNG", pngHeader, "projects/covers")
	assertStatus(t, rr, http.StatusOK)

	var resp uploadEnvelope
	decodeJSON(t, rr, &resp)
	if !resp.Success {
		t.Fatalf("unexpected response: %+v", resp)
	}
	d := resp.Data
	if d.ContentType != "image/png" || d.OriginalName != "photo.PNG" || d.Size != int64(len(pngHeader)) {
		t.Errorf("data = %+v", d)
	}
	if !strings.HasSuffix(d.FileName, ".png") {
		t.Errorf("fileName = %q, want .png extension", d.FileName)
	}
	if !strings.HasPrefix(d.URL, fakeBase+"projects/covers/") {
		t.Errorf("url = %q", d.URL)
	}

	name := strings.TrimPrefix(d.URL, fakeBase)
	if !bytes.Equal(env.objects.objects[name], pngHeader) {
		t.Error("stored object does not match upload")
	}
	if env.objects.types[name] != "image/png" {
		t.Errorf("stored content type = %q", env.objects.types[name])
	}
}

func TestUploadImage_DefaultFolder(t *testing.T) {
	env := newTestEnv(t)

	rr := env.upload(t, "a.gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), "")
	assertStatus(t, rr, http.StatusOK)
	var resp uploadEnvelope
	decodeJSON(t, rr, &resp)
	if !strings.HasPrefix(resp.Data.URL, fakeBase+"images/") {
		t.Errorf("url = %q, want default images folder", resp.Data.URL)
	}
}

func TestUploadImage_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		folder   string
	}{
		{"no file", "", nil, ""},
		{"text disguised as image", "evil.png", []byte("#!/bin/sh\necho hi\n"), ""},
		{"html", "page.jpg", []byte("<html><body>hi</body></html>"), ""},
		{"folder traversal", "a.png", pngHeader, "../secrets"},
		{"folder uppercase", "a.png", pngHeader, "Images"},
		{"empty file", "a.png", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.upload(t, tt.filename, tt.content, tt.folder)
			assertStatus(t, rr, http.StatusBadRequest)
			if len(env.objects.objects) != 0 {
				t.Error("rejected upload must not be stored")
			}
		})
	}
}

func TestUploadImage_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...)

	rr := env.upload(t, "big.png", big, "")
	assertStatus(t, rr, http.StatusBadRequest)
	if msg := errorMessage(t, rr); !strings.Contains(msg, "10MB") {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadImage_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.objects.putErr = errors.New("bucket unavailable")

	rr := env.upload(t, "a.png", pngHeader, "")
	assertStatus(t, rr, http.StatusInternalServerError)
	if strings.Contains(rr.Body.String(), "bucket unavailable") {
		t.Error("storage error leaked to client")
	}
}

func TestUploadHandler_NotConfigured(t *testing.T) {
	h := NewUploadHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for name, fn := range map[string]http.HandlerFunc{
		"upload":     h.UploadImage,
		"delete":     h.DeleteImage,
		"fix-policy": h.FixPolicy,
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			fn(rr, httptest.NewRequest("POST", "/", strings.NewReader("{}")))
			assertStatus(t, rr, http.StatusServiceUnavailable)
		})
	}
}

func TestObjectNameFormat(t *testing.T) {
	h := NewUploadHandler(newFakeObjects(), slog.Default())
	h.now = func() time.Time { return time.UnixMilli(1700000000123) }

	name := h.objectName("images", ".webp")
	if !strings.HasPrefix(name, "images/1700000000123-") || !strings.HasSuffix(name, ".webp") {
		t.Errorf("name = %q", name)
	}
	if got := len(strings.TrimSuffix(strings.TrimPrefix(name, "images/1700000000123-"), ".webp")); got != 8 {
		t.Errorf("random suffix length = %d, want 8", got)
	}
}

func TestCleanFolder(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", DefaultUploadFolder, true},
		{"  ", DefaultUploadFolder, true},
		{"projects", "projects", true},
		{"projects/covers_2024", "projects/covers_2024", true},
		{"/trim/slashes/", "trim/slashes", true},
		{"a//b", "", false},
		{"..", "", false},
		{"with space", "", false},
		{"UPPER", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := cleanFolder(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("cleanFolder(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Delete and policy
// ---------------------------------------------------------------------------

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)
	env.objects.objects["images/a.png"] = pngHeader

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing url", `{}`, http.StatusBadRequest},
		{"foreign bucket", `{"url":"http://objects.test/other/images/a.png"}`, http.StatusBadRequest},
		{"traversal", `{"url":"http://objects.test/media/images/../../x"}`, http.StatusBadRequest},
		{"own object", `{"url":"` + fakeBase + `images/a.png"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.doAuth(t, "POST", "/api/admin/upload/delete", strings.NewReader(tt.body))
			assertStatus(t, rr, tt.status)
		})
	}
	if _, ok := env.objects.objects["images/a.png"]; ok {
		t.Error("object should have been deleted")
	}
}

func TestFixPolicy(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doAuth(t, "POST", "/api/admin/upload/fix-policy", nil)
	assertStatus(t, rr, http.StatusOK)
	if env.objects.policies != 1 {
		t.Errorf("EnsurePublic calls = %d, want 1", env.objects.policies)
	}
}
