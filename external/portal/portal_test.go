package portal_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/schema"
)

func fakePortal(t *testing.T) (*gin.Engine, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return router, server
}

func TestListRequests(t *testing.T) {
	router, server := fakePortal(t)

	router.GET("/api/requests/me", func(c *gin.Context) {
		assert.Equal(t, "Bearer token-1", c.GetHeader("Authorization"))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": []schema.Request{
				{
					ID:          "id-1",
					RequestID:   "REQ-001",
					Subject:     schema.SUBJECT_COURSE_RELATED,
					Description: "Need room booking",
					Status:      schema.STATUS_PENDING,
					CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				},
			},
		})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	requests, err := client.ListRequests(context.Background(), "token-1", portal.SCOPE_MINE)
	assert.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, "REQ-001", requests[0].RequestID)
	assert.Equal(t, schema.STATUS_PENDING, requests[0].Status)
}

func TestListRequestsUnauthorized(t *testing.T) {
	router, server := fakePortal(t)

	router.GET("/api/requests/all", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "jwt expired"})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	_, err = client.ListRequests(context.Background(), "stale", portal.SCOPE_ALL)
	assert.True(t, errors.Is(err, portal.ErrUnauthorized))
}

func TestListRequestsUnknownScope(t *testing.T) {
	client, err := portal.New("http://portal.invalid", nil)
	assert.NoError(t, err)

	_, err = client.ListRequests(context.Background(), "token", "everything")
	assert.Error(t, err)
}

func TestCreateRequest(t *testing.T) {
	router, server := fakePortal(t)

	router.POST("/api/requests", func(c *gin.Context) {
		var draft schema.Draft
		assert.NoError(t, c.BindJSON(&draft))
		assert.Equal(t, schema.SUBJECT_COURSE_RELATED, draft.Subject)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": schema.Request{
				ID:          "id-9",
				RequestID:   "REQ-009",
				Subject:     draft.Subject,
				Description: draft.Description,
				Status:      schema.STATUS_PENDING,
				Attachments: []schema.Attachment{},
				CreatedAt:   time.Now().UTC(),
			},
		})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	created, err := client.CreateRequest(context.Background(), "token-1", schema.Draft{
		Subject:     schema.SUBJECT_COURSE_RELATED,
		Description: "Need room booking",
	})
	assert.NoError(t, err)
	assert.Equal(t, schema.STATUS_PENDING, created.Status)
	assert.Empty(t, created.Attachments)
}

func TestEditRequest(t *testing.T) {
	router, server := fakePortal(t)

	router.PUT("/api/requests/:id", func(c *gin.Context) {
		assert.Equal(t, "id-9", c.Param("id"))

		var draft schema.Draft
		assert.NoError(t, c.BindJSON(&draft))
		assert.Equal(t, schema.SUBJECT_FACULTY_REQUEST, draft.Subject)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": schema.Request{
				ID:          "id-9",
				RequestID:   "REQ-009",
				Subject:     draft.Subject,
				Description: draft.Description,
				Status:      schema.STATUS_PENDING,
				CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			},
		})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	edited, err := client.EditRequest(context.Background(), "token-1", "id-9", schema.Draft{
		Subject:     schema.SUBJECT_FACULTY_REQUEST,
		Description: "Need projector instead",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Need projector instead", edited.Description)
	assert.Equal(t, schema.STATUS_PENDING, edited.Status)
}

func TestUpdateRequestServerFailure(t *testing.T) {
	router, server := fakePortal(t)

	router.PUT("/api/requests/:id", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "mail relay down"})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	_, err = client.UpdateRequest(context.Background(), "token-1", "id-1", schema.StatusChange{
		Status: schema.STATUS_APPROVED,
		Remark: "ok",
	})

	var apiErr *portal.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "mail relay down", apiErr.Message)
}

func TestLogin(t *testing.T) {
	router, server := fakePortal(t)

	router.POST("/api/auth/login", func(c *gin.Context) {
		var body map[string]string
		assert.NoError(t, c.BindJSON(&body))
		assert.Equal(t, "amy@campus.edu", body["email"])

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"token":   "fresh-token",
			"user":    schema.User{ID: "u-1", Name: "Amy", Email: "amy@campus.edu", Role: schema.ROLE_FACULTY},
		})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	token, user, err := client.Login(context.Background(), "amy@campus.edu", "secret")
	assert.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "Amy", user.Name)
}

func TestMe(t *testing.T) {
	router, server := fakePortal(t)

	router.GET("/api/auth/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    schema.User{ID: "u-2", Name: "Dean", Role: schema.ROLE_ADMIN},
		})
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	user, err := client.Me(context.Background(), "token-1")
	assert.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestUploadAndDownloadCached(t *testing.T) {
	router, server := fakePortal(t)

	var hits int32
	router.POST("/api/upload", func(c *gin.Context) {
		file, err := c.FormFile("file")
		assert.NoError(t, err)
		assert.Equal(t, "notes.pdf", file.Filename)
		c.JSON(http.StatusOK, gin.H{"success": true, "filePath": "/uploads/notes.pdf"})
	})
	router.GET("/uploads/notes.pdf", func(c *gin.Context) {
		atomic.AddInt32(&hits, 1)
		c.Data(http.StatusOK, "application/pdf", []byte("%PDF-1.4"))
	})

	client, err := portal.New(server.URL, nil)
	assert.NoError(t, err)

	path, err := client.Upload(context.Background(), "token-1", "notes.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	assert.NoError(t, err)
	assert.Equal(t, "/uploads/notes.pdf", path)

	first, err := client.Download(context.Background(), "token-1", path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), first)

	second, err := client.Download(context.Background(), "token-1", path)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second download must hit the cache")
}
