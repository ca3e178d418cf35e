package tabular_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens-backend/internal/tabular"
)

func TestClient_UploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/upload-file", r.URL.Path)

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "sales.csv", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"file_uuid": "abc-123"}`))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	fileUUID, err := client.UploadFile(context.Background(), "sales.csv", []byte("a,b\n1,2\n"))

	require.NoError(t, err)
	assert.Equal(t, "abc-123", fileUUID)
}

func TestClient_UploadFile_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file type", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	_, err := client.UploadFile(context.Background(), "sales.pdf", []byte("%PDF"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestClient_UploadFile_EmptyUUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	_, err := client.UploadFile(context.Background(), "sales.csv", []byte("a,b\n"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file_uuid is empty")
}

func TestClient_CleanData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/download_cleaned_data/abc-123", r.URL.Path)

		w.Header().Set("Content-Disposition", `attachment; filename="cleaned_sales.zip"`)
		w.Write([]byte("zip-bytes"))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	archive, err := client.CleanData(context.Background(), "abc-123")

	require.NoError(t, err)
	assert.Equal(t, "cleaned_sales.zip", archive.Filename)
	assert.Equal(t, []byte("zip-bytes"), archive.Data)
}

func TestClient_CleanData_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "file not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	archive, err := client.CleanData(context.Background(), "missing")

	assert.Error(t, err)
	assert.Nil(t, archive)
}

func TestClient_AnalyzeData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download_data_analysis/abc-123", r.URL.Path)
		// Unquoted filename; some services emit these.
		w.Header().Set("Content-Disposition", "attachment; filename=analysis_sales.zip")
		w.Write([]byte("analysis-bytes"))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	archive, err := client.AnalyzeData(context.Background(), "abc-123")

	require.NoError(t, err)
	assert.Equal(t, "analysis_sales.zip", archive.Filename)
}

func TestClient_AnalyzeData_MissingDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("analysis-bytes"))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)
	archive, err := client.AnalyzeData(context.Background(), "abc-123")

	require.NoError(t, err)
	assert.Equal(t, "abc-123_analysis.zip", archive.Filename)
}

func TestClient_UploadFile_RetryRecoversTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"file_uuid": "abc-123"}`))
	}))
	defer server.Close()

	client := tabular.NewClient(server.URL)

	var fileUUID string
	err := client.RetryWithBackoff(func() error {
		var uploadErr error
		fileUUID, uploadErr = client.UploadFile(context.Background(), "sales.csv", []byte("a,b\n"))
		return uploadErr
	}, 3)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "abc-123", fileUUID)
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := tabular.NewClient("https://api.test.com")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := tabular.NewClient("https://api.test.com")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
