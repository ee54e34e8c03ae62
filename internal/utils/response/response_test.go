package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/types"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.Validationf("recipients are required"), http.StatusBadRequest},
		{fmt.Errorf("%w: blob", types.ErrNotFound), http.StatusNotFound},
		{types.ErrChannelUnavailable, http.StatusServiceUnavailable},
		{types.Wrap(types.ErrTransport, errors.New("smtp 550")), http.StatusBadGateway},
		{types.Wrap(types.ErrStorage, errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_KeepsCause(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteError(w, types.Wrap(types.ErrTransport, errors.New("smtp 550 mailbox unavailable"))))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	assert.Contains(t, body.Error, "smtp 550 mailbox unavailable")
}
