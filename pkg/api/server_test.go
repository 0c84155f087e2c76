package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/james-see/wrk2mid/pkg/converter/wrk/wrktest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func songFile() []byte {
	return wrktest.New(3, 0).
		Track(0, "Piano", "", -1, 0, 0).
		Stream(0, wrktest.Event{Time: 0, Status: 0x90, Data1: 60, Data2: 100, Dur: 120}).
		End().
		Bytes()
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	r := NewRouter()
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestListFormats(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))

	var resp map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp["conversions"]) != 2 || len(resp["encodings"]) == 0 {
		t.Errorf("formats response = %v", resp)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		filename string
		data     []byte
		wantCode int
	}{
		{"format 1", "/api/v1/convert/wrk2mid", "song.wrk", songFile(), http.StatusOK},
		{"format 0", "/api/v1/convert/wrk2mid?format=0", "song.wrk", songFile(), http.StatusOK},
		{"bad format", "/api/v1/convert/wrk2mid?format=x", "song.wrk", songFile(), http.StatusBadRequest},
		{"unknown format", "/api/v1/convert/wrk2mid?format=2", "song.wrk", songFile(), http.StatusBadRequest},
		{"bad encoding", "/api/v1/convert/wrk2mid?encoding=klingon", "song.wrk", songFile(), http.StatusBadRequest},
		{"no file", "/api/v1/convert/wrk2mid", "", nil, http.StatusBadRequest},
		{"wrong extension", "/api/v1/convert/wrk2mid", "song.mid", songFile(), http.StatusBadRequest},
		{"not a wrk file", "/api/v1/convert/wrk2mid", "song.wrk", []byte("garbage data"), http.StatusUnprocessableEntity},
		{"empty song", "/api/v1/convert/wrk2mid", "song.wrk", wrktest.New(3, 0).End().Bytes(), http.StatusUnprocessableEntity},
	}

	r := NewRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, tt.target, tt.filename, tt.data))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "audio/midi" {
				t.Errorf("Content-Type = %q, want audio/midi", ct)
			}
			if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=song.mid" {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte("MThd")) {
				t.Error("response is not a MIDI file")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	r := NewRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/check", "song.wrk", songFile()))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		OK      bool   `json:"ok"`
		Version string `json:"version"`
		Tracks  int    `json:"tracks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Version != "3.0" || resp.Tracks != 1 {
		t.Errorf("check response = %+v", resp)
	}

	bad := wrktest.New(3, 0).Chunk(10, []byte{1}).End().Bytes()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/check", "bad.wrk", bad))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var failed struct {
		OK       bool     `json:"ok"`
		Problems []string `json:"problems"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &failed); err != nil {
		t.Fatal(err)
	}
	if failed.OK || len(failed.Problems) != 1 {
		t.Errorf("check response = %+v", failed)
	}
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/convert/wrk2mid", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
