package csvdata

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setupTestRouter(t *testing.T, channel Channel) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(NewRepository(setupTestDB(t)), channel, 1000)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

type uploadForm struct {
	fields   map[string]string
	filename string
	content  string
}

func doUpload(t *testing.T, r http.Handler, form uploadForm) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range form.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if form.filename != "" {
		fw, err := mw.CreateFormFile("file", form.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(form.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var body apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body=%s", rr.Body.String())
	return rr, body
}

func doGet(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var body apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body=%s", rr.Body.String())
	return rr, body
}

func TestUploadEndpoint_Validation(t *testing.T) {
	r := setupTestRouter(t, &fakeChannel{sender: newRecordingSender()})

	cases := []struct {
		name    string
		form    uploadForm
		code    int
		message string
	}{
		{
			name:    "missing requestId",
			form:    uploadForm{filename: "a.csv", content: "a\n1\n"},
			code:    http.StatusBadRequest,
			message: "requestId is required",
		},
		{
			name:    "missing file",
			form:    uploadForm{fields: map[string]string{"requestId": "r1"}},
			code:    http.StatusBadRequest,
			message: "CSV file is required",
		},
		{
			name:    "not a csv",
			form:    uploadForm{fields: map[string]string{"requestId": "r1"}, filename: "a.txt", content: "a\n1\n"},
			code:    http.StatusBadRequest,
			message: "Only CSV files are allowed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := doUpload(t, r, tc.form)
			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, tc.code, body.Status)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestUploadEndpoint_NoRealtimeClient(t *testing.T) {
	r := setupTestRouter(t, &fakeChannel{})

	rr, body := doUpload(t, r, uploadForm{
		fields:   map[string]string{"requestId": "r1"},
		filename: "a.csv",
		content:  "a\n1\n",
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 500, body.Status)
	assert.Equal(t, "No WebSocket client connected", body.Message)
}

func TestUploadEndpoint_MalformedCSV(t *testing.T) {
	r := setupTestRouter(t, &fakeChannel{sender: newRecordingSender()})

	rr, body := doUpload(t, r, uploadForm{
		fields:   map[string]string{"requestId": "bad-1"},
		filename: "a.csv",
		content:  "a,b\n\"open,2\n",
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error processing file", body.Message)
	assert.NotEmpty(t, body.Error)

	_, body = doGet(t, r, "/csvData/bad-1")
	assert.Equal(t, http.StatusNotFound, body.Status)
}

func TestUploadThenFetch(t *testing.T) {
	sender := newRecordingSender()
	r := setupTestRouter(t, &fakeChannel{sender: sender})

	rr, body := doUpload(t, r, uploadForm{
		fields:   map[string]string{"requestId": "abc-123", "source": "crm"},
		filename: "people.csv",
		content:  buildCSV(1200),
	})
	require.Equal(t, http.StatusOK, rr.Code, "body=%v", body)
	assert.Equal(t, 200, body.Status)
	assert.Equal(t, "File processed and saved successfully", body.Message)

	var result UploadResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, int64(1200), result.Rows)
	assert.Equal(t, 2, result.Batches)
	require.Len(t, sender.messages(), 2)

	rr, body = doGet(t, r, "/csvData/abc-123")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 200, body.Status)

	var rec UploadRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))
	assert.Equal(t, "abc-123", rec.RequestID)
	assert.Equal(t, result.RecordID, rec.ID)
	assert.Equal(t, "crm", rec.Extra["source"])

	var desc FileDescriptor
	require.NoError(t, json.Unmarshal([]byte(rec.File), &desc))
	assert.Equal(t, "people.csv", desc.OriginalName)
	assert.Equal(t, "file", desc.FieldName)
	assert.Equal(t, "7bit", desc.Encoding)
	assert.Equal(t, "application/octet-stream", desc.MimeType)
	assert.Equal(t, int64(len(buildCSV(1200))), desc.Size)
}

func TestFetchUnknownRequestID(t *testing.T) {
	r := setupTestRouter(t, &fakeChannel{})

	rr, body := doGet(t, r, "/csvData/does-not-exist")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "Data not found", body.Message)
}
