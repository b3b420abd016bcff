package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestSendEmailTaskRoundTrip(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{
		To:      "klien@majujaya.co.id",
		Subject: "Penawaran Panel Kontrol",
		Body:    "Terlampir penawaran kami.",
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())
	require.NoError(t, HandleSendEmailTask(context.Background(), task))
}

func TestSendEmailTaskBadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskTypeSendEmail, []byte("bukan json"))
	err := HandleSendEmailTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
