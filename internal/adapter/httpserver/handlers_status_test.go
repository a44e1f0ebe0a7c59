package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadnessofAtlantis/kibana/internal/status"
)

func TestHandleStatus(t *testing.T) {
	overview := status.Overview{
		State: status.StateYellow,
		Components: []status.ComponentStatus{
			{Name: "redis", State: status.StateYellow, Message: "circuit open"},
		},
	}
	srv := newTestServer(t, &mockRenderer{}, withStatus(&mockStatus{overview: overview}))

	rec := get(srv, "/status")

	require.Equal(t, http.StatusOK, rec.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "kibana-test", body.Name)
	assert.Equal(t, status.StateYellow, body.Status.State)
	require.Len(t, body.Status.Components, 1)
	assert.Equal(t, "redis", body.Status.Components[0].Name)
}
