package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-karaoke/backend/internal/capture"
	"github.com/neon-karaoke/backend/internal/notify"
	"github.com/neon-karaoke/backend/internal/preview"
)

type httpFixture struct {
	router   *gin.Engine
	objects  *fakeObjects
	records  *fakeRecords
	notifier *fakeNotifier
	previews *preview.Registry
	relay    *capture.Relay
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &httpFixture{
		objects:  newFakeObjects(),
		records:  &fakeRecords{},
		notifier: &fakeNotifier{},
		previews: preview.NewRegistry(),
		relay:    capture.NewRelay(),
	}
	manager := NewManager(Deps{
		Device:    f.relay,
		Objects:   f.objects,
		Records:   f.records,
		Previews:  f.previews,
		Notifier:  f.notifier,
		MediaType: "audio/webm",
		Extension: ".webm",
	}, nil)
	handler := NewHandler(manager, f.relay, f.previews, nil)

	r := gin.New()
	r.POST("/sessions", handler.Create)
	r.GET("/sessions/:id", handler.Get)
	r.POST("/sessions/:id/start", handler.Start)
	r.POST("/sessions/:id/chunks", handler.PushChunk)
	r.POST("/sessions/:id/stop", handler.Stop)
	r.POST("/sessions/:id/confirm", handler.Confirm)
	r.POST("/sessions/:id/rerecord", handler.ReRecord)
	r.GET("/preview/:token", handler.Preview)
	f.router = r
	return f
}

func (f *httpFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *httpFixture) raw(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *httpFixture) createSession(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/sessions", gin.H{"client_id": "client-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.SessionID)
	return resp.Data.SessionID
}

func TestStartWithEmptyHandleOverHTTP(t *testing.T) {
	f := newHTTPFixture(t)
	id := f.createSession(t)

	w := f.do(t, http.MethodPost, "/sessions/"+id+"/start", gin.H{"handle": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, f.notifier.byKind(notify.KindError))

	w = f.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
}

func TestRecordAndSaveOverHTTP(t *testing.T) {
	f := newHTTPFixture(t)
	id := f.createSession(t)

	w := f.do(t, http.MethodPost, "/sessions/"+id+"/start", gin.H{"handle": "@alice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.raw(t, http.MethodPost, "/sessions/"+id+"/chunks", []byte("la la la"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":true`)

	w = f.do(t, http.MethodPost, "/sessions/"+id+"/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stopResp struct {
		Data Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stopResp))
	require.Equal(t, StateReviewing, stopResp.Data.State)
	require.NotEmpty(t, stopResp.Data.PreviewToken)

	// Preview plays back the artifact.
	w = f.do(t, http.MethodGet, "/preview/"+stopResp.Data.PreviewToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "la la la", w.Body.String())

	w = f.do(t, http.MethodPost, "/sessions/"+id+"/confirm", gin.H{"handle": "@alice", "title": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"@alice"`)
	assert.Contains(t, w.Body.String(), `"title":"Untitled Performance"`)
	assert.Contains(t, w.Body.String(), `"reset_inputs":true`)

	// The preview reference is revoked after a successful save.
	w = f.do(t, http.MethodGet, "/preview/"+stopResp.Data.PreviewToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Len(t, f.records.inserted, 1)
	assert.Equal(t, "@alice", f.records.inserted[0].Username)
}

func TestConfirmFailureOverHTTP(t *testing.T) {
	f := newHTTPFixture(t)
	id := f.createSession(t)

	f.do(t, http.MethodPost, "/sessions/"+id+"/start", gin.H{"handle": "@alice"})
	f.raw(t, http.MethodPost, "/sessions/"+id+"/chunks", []byte("x"))
	f.do(t, http.MethodPost, "/sessions/"+id+"/stop", nil)

	f.objects.putErr = assertError{}
	w := f.do(t, http.MethodPost, "/sessions/"+id+"/confirm", gin.H{"handle": "@alice"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, f.records.inserted)

	w = f.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Contains(t, w.Body.String(), `"state":"reviewing"`)
}

func TestChunksDroppedOutsideRecording(t *testing.T) {
	f := newHTTPFixture(t)
	id := f.createSession(t)

	w := f.raw(t, http.MethodPost, "/sessions/"+id+"/chunks", []byte("early"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)
}

func TestUnknownSession(t *testing.T) {
	f := newHTTPFixture(t)
	w := f.do(t, http.MethodPost, "/sessions/nope/start", gin.H{"handle": "@alice"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type assertError struct{}

func (assertError) Error() string { return "bucket unreachable" }
