package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Consumer replays task-events into notification rows. It is an
// optional downstream: the lifecycle manager already dispatches
// notifications directly, so running both against the same topic
// duplicates them. Enable only when direct dispatch is switched off.
type Consumer struct {
	reader *kafka.Reader
	db     *gorm.DB
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(brokers []string, db *gorm.DB) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  "notification-service",
			Topic:    TopicTaskEvents,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		db:   db,
		done: make(chan struct{}),
	}
}

// Start launches the consume loop. Handler failures are logged per
// message and never stop the loop.
func (c *Consumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		defer close(c.done)

		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Kafka read failed: %v", err)
				continue
			}

			var env Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				log.Printf("Malformed event on %s: %v", msg.Topic, err)
				continue
			}

			if err := c.handleEnvelope(env); err != nil {
				log.Printf("Failed to handle event %s: %v", env.Type, err)
			}
		}
	}()

	log.Printf("Kafka consumer subscribed to topic %s", TopicTaskEvents)
}

func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}

	if err := c.reader.Close(); err != nil {
		log.Printf("Failed to close Kafka reader: %v", err)
	}
}

func (c *Consumer) handleEnvelope(env Envelope) error {
	switch env.Type {
	case TaskAssigned:
		var data TaskAssignedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationTaskAssigned,
			Title:   "New Task Assigned",
			Message: fmt.Sprintf("You have been assigned to task: %q by %s", data.TaskTitle, data.AssignerName),
			UserID:  data.AssigneeID,
			Metadata: datatypes.JSONMap{
				"taskId":     data.TaskID,
				"assignerId": data.AssignerID,
			},
		})
	case TaskStatusChanged:
		var data TaskStatusChangedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationTaskStatusChanged,
			Title:   "Task Status Updated",
			Message: fmt.Sprintf("Task %q status changed from %s to %s", data.TaskTitle, data.PreviousStatus, data.NewStatus),
			UserID:  data.ChangedByID,
			Metadata: datatypes.JSONMap{
				"taskId":         data.TaskID,
				"previousStatus": data.PreviousStatus,
				"newStatus":      data.NewStatus,
			},
		})
	case SubtaskAdded:
		var data SubtaskAddedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationSubtaskAdded,
			Title:   "New Subtask Added",
			Message: fmt.Sprintf("Subtask %q was added to task %q", data.SubtaskTitle, data.TaskTitle),
			UserID:  data.CreatedByID,
			Metadata: datatypes.JSONMap{
				"taskId":    data.TaskID,
				"subtaskId": data.SubtaskID,
			},
		})
	case DeadlineApproaching:
		var data DeadlineApproachingData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationDeadline,
			Title:   "Deadline Approaching",
			Message: fmt.Sprintf("Task %q is due on %s", data.TaskTitle, data.DueDate),
			UserID:  data.AssigneeID,
			Metadata: datatypes.JSONMap{
				"taskId":  data.TaskID,
				"dueDate": data.DueDate,
			},
		})
	case ProjectCreated:
		var data ProjectCreatedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationProjectUpdate,
			Title:   "New Project Created",
			Message: fmt.Sprintf("Project %q was created by %s", data.ProjectName, data.CreatedByName),
			UserID:  data.CreatedByID,
			Metadata: datatypes.JSONMap{
				"projectId": data.ProjectID,
				"teamId":    data.TeamID,
			},
		})
	case TeamMemberAdded:
		var data TeamMemberAddedData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		return c.createNotification(models.Notification{
			Type:    types.NotificationTeamUpdate,
			Title:   "Added to Team",
			Message: fmt.Sprintf("You have been added to team: %s", data.TeamName),
			UserID:  data.UserID,
			Metadata: datatypes.JSONMap{
				"teamId":    data.TeamID,
				"addedById": data.AddedByID,
			},
		})
	default:
		log.Printf("Unknown event type: %s", env.Type)
		return nil
	}
}

func (c *Consumer) createNotification(n models.Notification) error {
	if n.UserID == "" {
		return nil
	}
	return c.db.Create(&n).Error
}
