package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"learnspace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubRegisterPublishUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send:  make(chan []byte, 10),
		Topic: TopicTeacher,
	}
	hub.register <- client

	hub.Publish(context.Background(), UpdateEvent(models.TeacherRequests))

	select {
	case got := <-client.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(got, &ev))
		assert.Equal(t, "update", ev.Type)
		assert.Equal(t, models.TeacherRequests, ev.Collection)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubOnlyNotifiesAffectedTopics(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	admin := &Client{Send: make(chan []byte, 10), Topic: TopicAdmin}
	organiser := &Client{Send: make(chan []byte, 10), Topic: TopicOrganiser}
	hub.register <- admin
	hub.register <- organiser

	hub.Publish(context.Background(), UpdateEvent(models.AdminRequests))

	select {
	case <-admin.Send:
	case <-time.After(time.Second):
		t.Fatal("admin dashboard not notified")
	}
	select {
	case msg := <-organiser.Send:
		t.Fatalf("organiser dashboard got %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTopicsFor(t *testing.T) {
	assert.Equal(t, []string{TopicAdmin}, TopicsFor(models.AdminRequests))
	assert.Equal(t, []string{TopicOrganiser}, TopicsFor(models.OrganiserRequests))
	assert.Len(t, TopicsFor(models.Rooms), 3)
	assert.Nil(t, TopicsFor(models.Users))
}

func TestTopicAllows(t *testing.T) {
	assert.True(t, TopicAllows(TopicTeacher, models.RoleFaculty))
	assert.True(t, TopicAllows(TopicOrganiser, models.RoleOrganizer))
	assert.True(t, TopicAllows(TopicOrganiser, models.RoleAdmin))
	assert.False(t, TopicAllows(TopicAdmin, models.RoleFaculty))
	assert.False(t, TopicAllows(TopicTeacher, models.RoleStudent))
	assert.False(t, TopicAllows("nowhere", models.RoleAdmin))
}
