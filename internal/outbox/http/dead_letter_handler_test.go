package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/http/dto"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/http/mocks"
)

func setupDeadLetterHandler(t *testing.T) (*DeadLetterHandler, *mocks.MockDeadLetterAdmin) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	admin := new(mocks.MockDeadLetterAdmin)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewDeadLetterHandler(admin, logger), admin
}

func sampleDeadLetter() *domain.DeadLetterRecord {
	event := sampleEvent()
	event.RetryCount = 5
	return domain.NewDeadLetterRecord(event, "ministry returned 503")
}

func TestDeadLetterHandler_ListHandler(t *testing.T) {
	handler, admin := setupDeadLetterHandler(t)
	record := sampleDeadLetter()

	admin.On("ListDeadLetters", mock.Anything, 50, 0).
		Return([]*domain.DeadLetterRecord{record}, nil)

	c, w := createTestContext(t, http.MethodGet, "/v1/dead-letters", nil)

	handler.ListHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListDeadLettersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.DeadLetters, 1)
	assert.Equal(t, record.EventID.String(), response.DeadLetters[0].EventID)
	assert.Equal(t, 5, response.DeadLetters[0].RetryCount)
	assert.Equal(t, "ministry returned 503", response.DeadLetters[0].LastError)
}

func TestDeadLetterHandler_DeleteHandler(t *testing.T) {
	t.Run("Success_Delete", func(t *testing.T) {
		handler, admin := setupDeadLetterHandler(t)
		id := uuid.Must(uuid.NewV7())

		admin.On("DeleteDeadLetter", mock.Anything, id).Return(nil)

		c, w := createTestContext(t, http.MethodDelete, "/v1/dead-letters/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, admin := setupDeadLetterHandler(t)
		id := uuid.Must(uuid.NewV7())

		admin.On("DeleteDeadLetter", mock.Anything, id).Return(apperrors.ErrNotFound)

		c, w := createTestContext(t, http.MethodDelete, "/v1/dead-letters/"+id.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeadLetterHandler_ReprocessHandler(t *testing.T) {
	handler, admin := setupDeadLetterHandler(t)
	id := uuid.Must(uuid.NewV7())

	admin.On("ReprocessDeadLetter", mock.Anything, id).Return(nil)

	c, w := createTestContext(t, http.MethodPost, "/v1/dead-letters/"+id.String()+"/reprocess", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	handler.ReprocessHandler(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
