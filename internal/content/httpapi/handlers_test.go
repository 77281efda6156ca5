package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/repository"
	"github.com/romariotrain/content-pipeline/internal/content/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	svc := service.New(repo, repo, repo)
	srv := httptest.NewServer(NewRouter(New(svc)))
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Video,
		Source: "s3://bucket/clip.mp4",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[ContentResponse](t, resp)
	assert.NotEqual(t, uuid.Nil, body.ID)
	assert.Equal(t, "uploading", body.Status)
	assert.Equal(t, models.Video, body.Type)
	assert.Equal(t, "s3://bucket/clip.mp4", body.Source)
}

func TestRegisterUpload_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{Source: "src"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/content", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/content")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}

func TestGetContent(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Image,
		Source: "s3://bucket/pic.png",
	}))

	resp, err := http.Get(srv.URL + "/content/" + created.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[ContentResponse](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "uploading", got.Status)
}

func TestGetContent_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/content/" + uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/content/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestFinishUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Video,
		Source: "s3://bucket/clip.mp4",
	}))

	resp := doJSON(t, http.MethodPost, srv.URL+"/content/"+created.ID.String()+"/finish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[ContentResponse](t, resp)
	assert.Equal(t, "uploaded", got.Status)

	// Повторный finish — no-op: статус уже uploaded.
	resp = doJSON(t, http.MethodPost, srv.URL+"/content/"+created.ID.String()+"/finish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[ContentResponse](t, resp)
	assert.Equal(t, "uploaded", got.Status)
}

func TestChangeStatus_FullPipeline(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Audio,
		Source: "s3://bucket/track.wav",
	}))
	statusURL := srv.URL + "/content/" + created.ID.String() + "/status"

	for _, next := range []models.Status{
		models.UploadedStatus,
		models.ProcessingStatus,
		models.CompletedStatus,
	} {
		resp := doJSON(t, http.MethodPatch, statusURL, ChangeStatusRequest{Status: next})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(next))
		got := decode[ContentResponse](t, resp)
		assert.Equal(t, string(next), got.Status)
	}
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Video,
		Source: "s3://bucket/clip.mp4",
	}))
	statusURL := srv.URL + "/content/" + created.ID.String() + "/status"

	// uploading -> completed пропускает стадии.
	resp := doJSON(t, http.MethodPatch, statusURL, ChangeStatusRequest{Status: models.CompletedStatus})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Значения вне закрытого набора не проходят.
	resp = doJSON(t, http.MethodPatch, statusURL, ChangeStatusRequest{Status: "archived"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRetry(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Video,
		Source: "s3://bucket/clip.mp4",
	}))
	base := srv.URL + "/content/" + created.ID.String()

	// До failed ретраить нечего.
	resp := doJSON(t, http.MethodPost, base+"/retry", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, base+"/status", ChangeStatusRequest{Status: models.FailedStatus, Reason: "transfer aborted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Retry возвращает элемент в uploaded, claimable для воркера.
	resp = doJSON(t, http.MethodPost, base+"/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[ContentResponse](t, resp)
	assert.Equal(t, "uploaded", got.Status)
}

func TestDerivatives(t *testing.T) {
	srv, repo := newTestServer(t)

	created := decode[ContentResponse](t, doJSON(t, http.MethodPost, srv.URL+"/content", RegisterUploadRequest{
		Type:   models.Video,
		Source: "s3://bucket/clip.mp4",
	}))
	base := srv.URL + "/content/" + created.ID.String()

	// Пока артефактов нет — пустой список, не 404.
	resp, err := http.Get(base + "/derivatives")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[DerivativesResponse](t, resp)
	assert.Equal(t, created.ID, got.ContentID)
	assert.Equal(t, "uploading", got.Status)
	assert.Empty(t, got.Derivatives)

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.AddTx(context.Background(), tx, &models.Derivative{
		ID:        uuid.New(),
		ContentID: created.ID,
		Kind:      "thumbnail",
		Location:  "/derived/thumb.jpg",
	}))
	require.NoError(t, tx.Commit())

	resp, err = http.Get(base + "/derivatives")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[DerivativesResponse](t, resp)
	require.Len(t, got.Derivatives, 1)
	assert.Equal(t, "thumbnail", got.Derivatives[0].Kind)
	assert.Equal(t, "/derived/thumb.jpg", got.Derivatives[0].Location)
}

func TestUnknownAction(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/content/" + uuid.NewString() + "/metadata")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
