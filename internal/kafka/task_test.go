package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/task-tracker/internal"
	internalkafka "github.com/sanLimbu/task-tracker/internal/kafka"
)

type fakeProducer struct {
	msgs []*kafka.Message
	err  error
}

func (f *fakeProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestTask_Publish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	producer := &fakeProducer{}
	repo := internalkafka.NewTask(producer, "tasks")

	task := internal.Task{ID: 12, Title: "Pay rent", Status: internal.StatusPending, CreatedAt: time.Now(), Variant: internal.Deadline{}}

	require.NoError(t, repo.Created(ctx, task))
	require.NoError(t, repo.Deleted(ctx, task.ID))

	require.Len(t, producer.msgs, 2)

	for _, msg := range producer.msgs {
		require.NotNil(t, msg.TopicPartition.Topic)
		assert.Equal(t, "tasks", *msg.TopicPartition.Topic)
		assert.Equal(t, []byte("12"), msg.Key)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "event_id", msg.Headers[0].Key)
	}

	var evt internal.TaskEvent
	require.NoError(t, json.Unmarshal(producer.msgs[0].Value, &evt))
	assert.Equal(t, internal.EventTaskCreated, evt.Type)
	require.NotNil(t, evt.Task)
	assert.Equal(t, internal.KindDeadline, evt.Task.Kind)

	var deleted internal.TaskEvent
	require.NoError(t, json.Unmarshal(producer.msgs[1].Value, &deleted))
	assert.Equal(t, internal.EventTaskDeleted, deleted.Type)
	assert.Nil(t, deleted.Task)
}

func TestTask_Publish_Error(t *testing.T) {
	t.Parallel()

	repo := internalkafka.NewTask(&fakeProducer{err: errors.New("queue full")}, "tasks")

	err := repo.Updated(context.Background(), internal.Task{ID: 1, Variant: internal.Simple{}})

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, internal.ErrorCodeUnknown, ierr.Code())
}
