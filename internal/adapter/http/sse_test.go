package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"visionq/internal/service"
)

func TestSSEWrite_Format(t *testing.T) {
	rec := httptest.NewRecorder()
	sseWrite(rec, "progress", service.Event{Type: "progress", Progress: 42})

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: progress\n"), body)
	assert.Contains(t, body, `data: {"type":"progress","progress":42}`)
	assert.True(t, strings.HasSuffix(body, "\n\n"), "event must end with a blank line")
}

func TestSSEWrite_TerminalStatusCarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	sseWrite(rec, "status", service.Event{Type: "status", Status: "FAILURE", Message: "decode error"})

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: status"))
	assert.Contains(t, body, `"status":"FAILURE"`)
	assert.Contains(t, body, `"message":"decode error"`)
}

func TestSendKeepAlive_IsComment(t *testing.T) {
	rec := httptest.NewRecorder()
	sendKeepAlive(rec)
	assert.Equal(t, ": keep-alive\n\n", rec.Body.String())
}
