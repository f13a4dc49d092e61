package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"ResumeForge-backend/internal/auth"
	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/middleware"
	"ResumeForge-backend/internal/model"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

type mockStorageClient struct {
	uploaded        map[string][]byte
	downloadPayload map[string][]byte
	uploadErr       error
	downloadErr     error
}

func newMockStorageClient() *mockStorageClient {
	return &mockStorageClient{
		uploaded:        make(map[string][]byte),
		downloadPayload: make(map[string][]byte),
	}
}

func (m *mockStorageClient) UploadFile(objectName string, fileData io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	buf, err := io.ReadAll(fileData)
	if err != nil {
		return err
	}
	m.uploaded[objectName] = buf
	return nil
}

func (m *mockStorageClient) DownloadFile(objectName string) (io.ReadCloser, int64, error) {
	if m.downloadErr != nil {
		return nil, 0, m.downloadErr
	}
	payload, ok := m.downloadPayload[objectName]
	if !ok {
		return nil, 0, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
}

func TestPersistFileData_UsesCloudStorage(t *testing.T) {
	mockStorage := newMockStorageClient()
	ctrl := NewFileController(nil, mockStorage)
	file := &model.File{}
	data := []byte("hello world")

	err := ctrl.persistFileData(file, data, ".pdf", resumeObjectPrefix)
	require.NoError(t, err)

	require.NotNil(t, file.StorageObjectName)
	require.True(t, strings.HasPrefix(*file.StorageObjectName, resumeObjectPrefix+"/"))
	require.Nil(t, file.Content)
	require.Equal(t, ".pdf", file.Extension)
	require.Contains(t, mockStorage.uploaded, *file.StorageObjectName)
	require.Equal(t, data, mockStorage.uploaded[*file.StorageObjectName])
}

func TestPersistFileData_FallsBackToDatabase(t *testing.T) {
	ctrl := NewFileController(nil, nil)
	file := &model.File{}
	data := []byte("inline")

	err := ctrl.persistFileData(file, data, ".pdf", resumeObjectPrefix)
	require.NoError(t, err)

	require.Nil(t, file.StorageObjectName)
	require.Equal(t, data, file.Content)
	require.Equal(t, ".pdf", file.Extension)
}

func TestPersistFileData_UploadError(t *testing.T) {
	mockStorage := newMockStorageClient()
	mockStorage.uploadErr = errors.New("boom")
	ctrl := NewFileController(nil, mockStorage)
	file := &model.File{}

	err := ctrl.persistFileData(file, []byte("fail"), ".pdf", resumeObjectPrefix)
	require.Error(t, err)
	require.EqualError(t, err, "boom")
}

func TestWriteFileResponse_CloudStorage(t *testing.T) {
	mockStorage := newMockStorageClient()
	mockStorage.downloadPayload["resumes/foo"] = []byte("downloaded")
	ctrl := NewFileController(nil, mockStorage)
	objectName := "resumes/foo"
	file := &model.File{ID: 42, Extension: ".pdf", StorageObjectName: &objectName}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ctrl.writeFileResponse(c, file)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "downloaded", w.Body.String())
	require.Equal(t, "attachment; filename=42.pdf", w.Header().Get("Content-Disposition"))
}

func TestWriteFileResponse_RemoteButStorageDisabled(t *testing.T) {
	ctrl := NewFileController(nil, nil)
	objectName := "resumes/foo"
	file := &model.File{ID: 8, Extension: ".pdf", StorageObjectName: &objectName}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ctrl.writeFileResponse(c, file)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Cloud storage is disabled")
}

func fileRouter() *gin.Engine {
	r := gin.New()
	ctrl := NewFileController(testDB, nil)
	protected := r.Group("/", middleware.RequireAuth(testDB))
	protected.POST("/file/resume", middleware.SizeLimit(10<<20), ctrl.UploadResumeHandler)
	protected.GET("/file/:id", ctrl.GetFileHandler)
	return r
}

func multipartUpload(t *testing.T, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadAndDownloadResume(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	require.NoError(t, err)

	router := fileRouter()
	payload := []byte("%PDF-1.4 resume bytes")
	body, contentType := multipartUpload(t, "cv.pdf", payload)

	req := httptest.NewRequest(http.MethodPost, "/file/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"id"`)

	var stored model.File
	require.NoError(t, testDB.Order("id DESC").First(&stored).Error)
	require.Equal(t, payload, stored.Content)

	dlReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/file/%d", stored.ID), nil)
	dlReq.Header.Set("Authorization", "Bearer "+token)
	dlRec := httptest.NewRecorder()
	router.ServeHTTP(dlRec, dlReq)

	require.Equal(t, http.StatusOK, dlRec.Code)
	require.Equal(t, payload, dlRec.Body.Bytes())
	require.Contains(t, dlRec.Header().Get("Content-Disposition"), ".pdf")
}

func TestUploadRejectsNonPDF(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	require.NoError(t, err)

	router := fileRouter()
	body, contentType := multipartUpload(t, "photo.png", []byte("not a pdf"))

	req := httptest.NewRequest(http.MethodPost, "/file/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadRejectsOversizedResume(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	require.NoError(t, err)

	r := gin.New()
	ctrl := NewFileController(testDB, nil)
	protected := r.Group("/", middleware.RequireAuth(testDB))
	protected.POST("/file/resume", middleware.SizeLimit(1024), ctrl.UploadResumeHandler)

	// well past the 1 KiB cap plus the multipart overhead allowance
	body, contentType := multipartUpload(t, "big.pdf", bytes.Repeat([]byte("x"), 64*1024))

	req := httptest.NewRequest(http.MethodPost, "/file/resume", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

func TestGetFileNotFound(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	require.NoError(t, err)

	router := fileRouter()
	req := httptest.NewRequest(http.MethodGet, "/file/999999", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
