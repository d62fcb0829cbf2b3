package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	msgs    [][]byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.msgs = append(f.msgs, data)
	return f.err
}

func TestFeedIsBounded(t *testing.T) {
	feed := NewFeed(3)
	for i := 0; i < 5; i++ {
		feed.Report(context.Background(), Info("test", fmt.Sprintf("event %d", i)))
	}

	events := feed.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "event 2", events[0].Message)
	assert.Equal(t, "event 4", events[2].Message)

	feed.Clear()
	assert.Empty(t, feed.Events())
}

func TestFailureKeepsMessageVerbatim(t *testing.T) {
	event := Failure("LoadProducts", errors.New("Sheet 'Products' not found"))
	assert.Equal(t, LevelError, event.Level)
	assert.Equal(t, "Sheet 'Products' not found", event.Message)
}

func TestNATSReporterPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	r := NewNATSReporterWithPublisher(pub, "orderdesk.events")

	r.Report(context.Background(), Failure("Submit", errors.New("boom")))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "orderdesk.events", pub.subject)
	var got Event
	require.NoError(t, json.Unmarshal(pub.msgs[0], &got))
	assert.Equal(t, "Submit", got.Source)
	assert.Equal(t, "boom", got.Message)
	assert.NoError(t, r.Close())
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewFeed(10), NewFeed(10)
	Multi{a, nil, LogReporter{}, b}.Report(context.Background(), Info("x", "y"))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
