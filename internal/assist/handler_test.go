package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to, subject, body string
	err               error
	calls             int
}

func (m *recordingMailer) SendDraft(_ context.Context, to, subject, body string) error {
	m.calls++
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func newTestHandler(gen *stubGenerator, mailer MailerPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(NewService(gen, logger), mailer, logger)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func postDraft(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/assist/draft-email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDraftEmailQueuesWhenAsked(t *testing.T) {
	mailer := &recordingMailer{}
	h := newTestHandler(&stubGenerator{response: "Dengan hormat, ..."}, mailer)

	rec := postDraft(t, h, `{"recipient":"PT Maju Jaya","to":"purchasing@majujaya.co.id","subject":"Penawaran","send":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, mailer.calls)
	require.Equal(t, "purchasing@majujaya.co.id", mailer.to)
	require.Equal(t, "Dengan hormat, ...", mailer.body)
	require.Contains(t, rec.Body.String(), `"queued":true`)
}

func TestDraftEmailWithoutSendSkipsQueue(t *testing.T) {
	mailer := &recordingMailer{}
	h := newTestHandler(&stubGenerator{response: "Dengan hormat, ..."}, mailer)

	rec := postDraft(t, h, `{"recipient":"PT Maju Jaya","subject":"Penawaran"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, mailer.calls)
	require.Contains(t, rec.Body.String(), `"queued":false`)
}

func TestDraftEmailQueueFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("antrian penuh")}
	h := newTestHandler(&stubGenerator{response: "Dengan hormat, ..."}, mailer)

	rec := postDraft(t, h, `{"to":"purchasing@majujaya.co.id","subject":"Penawaran","send":true}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDraftEmailSendWithoutMailer(t *testing.T) {
	h := newTestHandler(&stubGenerator{response: "Dengan hormat, ..."}, nil)

	rec := postDraft(t, h, `{"to":"purchasing@majujaya.co.id","subject":"Penawaran","send":true}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
