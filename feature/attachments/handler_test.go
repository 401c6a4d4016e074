package attachments_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"field-ops/core/middleware/auth"
	"field-ops/core/storage/mocks"
	"field-ops/feature/attachments"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "attachments").Return(true, nil)

	app := fiber.New()
	app.Use(auth.New(auth.Config{ApiKey: ""}))
	feature := attachments.NewFeature(mockClient, "attachments", zap.NewNop())
	require.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))
	return app, mockClient
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body []byte) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(auth.HeaderActorID, "tech-7")
	req.Header.Set(auth.HeaderOrgID, "org-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestHandleUploadAttachment(t *testing.T) {
	app, mockClient := setupTestApp(t)

	mockClient.On("PutObject", mock.Anything, "attachments", "org-1/job-1/site.jpg",
		mock.Anything, int64(9), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	code, _ := doRequest(t, app, "POST", "/attachments/job-1/site.jpg", []byte("image-jpg"))
	assert.Equal(t, fiber.StatusCreated, code)
	mockClient.AssertExpectations(t)
}

func TestHandleUploadAttachment_EmptyBody(t *testing.T) {
	app, _ := setupTestApp(t)

	code, _ := doRequest(t, app, "POST", "/attachments/job-1/site.jpg", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestHandleDownloadAttachment(t *testing.T) {
	app, mockClient := setupTestApp(t)

	mockClient.On("GetObject", mock.Anything, "attachments", "org-1/job-1/site.jpg", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("image-jpg"))), nil)

	code, body := doRequest(t, app, "GET", "/attachments/job-1/site.jpg", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []byte("image-jpg"), body)
}

func TestHandleListAttachments(t *testing.T) {
	app, mockClient := setupTestApp(t)

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "org-1/job-1/site.jpg"}
	ch <- minio.ObjectInfo{Key: "org-1/job-1/signature.png"}
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "attachments", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "org-1/job-1/"
	})).Return((<-chan minio.ObjectInfo)(ch))

	code, body := doRequest(t, app, "GET", "/attachments/job-1", nil)
	assert.Equal(t, fiber.StatusOK, code)

	var names []string
	require.NoError(t, json.Unmarshal(body, &names))
	assert.Equal(t, []string{"site.jpg", "signature.png"}, names)
}

func TestHandleRemoveAttachment(t *testing.T) {
	app, mockClient := setupTestApp(t)

	mockClient.On("RemoveObject", mock.Anything, "attachments", "org-1/job-1/site.jpg", mock.Anything).
		Return(nil)

	code, _ := doRequest(t, app, "DELETE", "/attachments/job-1/site.jpg", nil)
	assert.Equal(t, fiber.StatusOK, code)
	mockClient.AssertExpectations(t)
}

func TestAttachments_NoIdentity(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/attachments/job-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestEnsureBucket_CreatesWhenMissing(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("BucketExists", mock.Anything, "attachments").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "attachments", mock.Anything).Return(nil)

	svc := attachments.NewService(mockClient, "attachments", zap.NewNop())
	require.NoError(t, svc.EnsureBucket(context.Background()))
	mockClient.AssertExpectations(t)
}
