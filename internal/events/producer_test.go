package events

import (
	"testing"
)

// A producer without a broker degrades to logging. Callers hold the
// Publisher interface, so a nil *Producer must still answer Publish.
func TestPublishWithoutBroker(t *testing.T) {
	var p *Producer

	var bus Publisher = p
	bus.Publish(TopicTaskEvents, ProjectCreated, ProjectCreatedData{
		ProjectID:   "p1",
		ProjectName: "Migration",
	})

	p.Publish(TopicTaskEvents, TaskAssigned, TaskAssignedData{TaskID: "t1"})

	if err := p.Close(); err != nil {
		t.Fatalf("Close on nil producer: %v", err)
	}
}
