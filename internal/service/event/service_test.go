package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/model"
)

type fakeOutbox struct {
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(ctx context.Context, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkProcessed(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func TestEmit(t *testing.T) {
	outbox := &fakeOutbox{}
	svc := NewService(outbox)

	payload := model.PrincipalEventPayload{
		PrincipalID: uuid.New(),
		Kind:        model.KindNurse,
		Username:    "nina",
		Status:      model.StatusActive,
	}
	require.NoError(t, svc.Emit(context.Background(), model.EventPrincipalCreated, payload))

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventPrincipalCreated, outbox.events[0].EventType)

	var got model.PrincipalEventPayload
	require.NoError(t, json.Unmarshal(outbox.events[0].Payload, &got))
	assert.Equal(t, payload, got)
}

func TestEmitUnmarshalablePayload(t *testing.T) {
	svc := NewService(&fakeOutbox{})

	err := svc.Emit(context.Background(), model.EventPrincipalCreated, func() {})
	assert.Error(t, err)
}
