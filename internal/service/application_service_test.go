package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"jobhire/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return "msg_1", nil
}

func TestApplicationCreatePublishesAutoApplyTask(t *testing.T) {
	repo := &fakeAppRepo{}
	pub := &fakePublisher{}
	svc := NewApplicationService(repo, pub, "auto_apply_queue", zerolog.Nop())

	app, err := svc.Create(context.Background(), "user_1", "job_1", "Engineer", "Acme")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusMatching, app.Status)
	require.Len(t, repo.apps, 1)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "auto_apply_queue", pub.topics[0])
	var task AutoApplyTask
	require.NoError(t, json.Unmarshal(pub.payloads[0], &task))
	assert.Equal(t, app.ID.Hex(), task.ApplicationID)
	assert.Equal(t, "user_1", task.UserID)
	assert.Equal(t, "job_1", task.JobID)
}

func TestApplicationCreatePublishFailureKeepsRecord(t *testing.T) {
	repo := &fakeAppRepo{}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	svc := NewApplicationService(repo, pub, "auto_apply_queue", zerolog.Nop())

	app, err := svc.Create(context.Background(), "user_1", "job_1", "", "")
	require.NoError(t, err)
	assert.NotNil(t, app)
	assert.Len(t, repo.apps, 1)
}

func TestApplicationCreateValidation(t *testing.T) {
	svc := NewApplicationService(&fakeAppRepo{}, &fakePublisher{}, "auto_apply_queue", zerolog.Nop())

	_, err := svc.Create(context.Background(), "", "job_1", "", "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Create(context.Background(), "user_1", "", "", "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestApplicationListByUser(t *testing.T) {
	repo := &fakeAppRepo{}
	svc := NewApplicationService(repo, &fakePublisher{}, "auto_apply_queue", zerolog.Nop())

	_, err := svc.Create(context.Background(), "user_1", "job_1", "", "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user_2", "job_2", "", "")
	require.NoError(t, err)

	apps, err := svc.ListByUser(context.Background(), "user_1", 10)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "job_1", apps[0].JobID)
}
