package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/pkg/api"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

func TestEncodeError(t *testing.T) {
	cases := []struct {
		desc   string
		err    error
		status int
	}{
		{desc: "already training", err: pkgerrors.ErrAlreadyTraining, status: http.StatusConflict},
		{desc: "model not initialized", err: pkgerrors.ErrModelNotInitialized, status: http.StatusPreconditionFailed},
		{desc: "no training data", err: pkgerrors.ErrNoTrainingData, status: http.StatusBadRequest},
		{desc: "no participants", err: pkgerrors.ErrNoParticipants, status: http.StatusBadRequest},
		{desc: "empty aggregation", err: pkgerrors.ErrAggregationEmptyInput, status: http.StatusBadRequest},
		{desc: "wrapped shape mismatch", err: fmt.Errorf("layer 0: %w", pkgerrors.ErrShapeMismatch), status: http.StatusBadRequest},
		{desc: "validation", err: errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData), status: http.StatusBadRequest},
		{desc: "not found", err: fmt.Errorf("round %w", pkgerrors.ErrNotFound), status: http.StatusNotFound},
		{desc: "content type", err: apiutil.ErrUnsupportedContentType, status: http.StatusUnsupportedMediaType},
		{desc: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, rec)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, api.ContentType, rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}
