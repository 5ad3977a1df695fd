// Package lifecycle schedules delivery-status progression for outgoing
// messages and obtains agent replies. Every scheduled mutation re-reads
// fresh persisted state through the repository, so a late timer firing
// after another actor appended a message updates its target without
// clobbering anything else.
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"luminachat/pkg/ai"
	"luminachat/pkg/metrics"
	"luminachat/pkg/models"
	"luminachat/pkg/repo"
)

// Delays are the fixed intervals of the simulated delivery progression.
type Delays struct {
	Sent      time.Duration
	Delivered time.Duration
	Read      time.Duration
	AgentRead time.Duration
}

// DefaultDelays mirror the original demo timings.
func DefaultDelays() Delays {
	return Delays{
		Sent:      500 * time.Millisecond,
		Delivered: 1 * time.Second,
		Read:      2 * time.Second,
		AgentRead: 300 * time.Millisecond,
	}
}

// Driver runs the per-message state machine sending -> sent -> delivered
// -> read. Agent chats skip the delivered/read timers and mark read
// shortly after send; the agent's reply is appended against the current
// chat tail, not the snapshot captured at send time.
type Driver struct {
	repo      *repo.Repository
	responder ai.Responder
	delays    Delays
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a driver over r. responder must be non-nil for agent chats;
// a nil responder falls back to the static fallback reply.
func New(r *repo.Repository, responder ai.Responder, delays Delays, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if responder == nil {
		responder = ai.Static{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		repo:      r,
		responder: responder,
		delays:    delays,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Send appends an outgoing message with status sending, persists it and
// schedules its progression. It returns the appended message immediately;
// the transitions run in the background.
func (d *Driver) Send(sender models.User, chatID, text string, attachments []models.Attachment) (models.Message, error) {
	msg := models.Message{
		ID:          models.NewMessageID(),
		SenderID:    sender.ID,
		Text:        text,
		Timestamp:   time.Now().UTC(),
		Status:      models.StatusSending,
		Attachments: attachments,
	}
	if err := d.repo.AppendMessage(chatID, msg); err != nil {
		return models.Message{}, err
	}
	metrics.MessagesSent.Inc()

	chat, ok := d.repo.Chat(chatID)
	if !ok {
		// chat vanished between append and read; the progression would be
		// a no-op anyway
		return msg, nil
	}
	agentChat := chat.IsAgentChat()

	d.wg.Add(1)
	go d.progress(chatID, msg.ID, agentChat)

	if agentChat && strings.TrimSpace(text) != "" {
		d.wg.Add(1)
		go d.reply(chat, msg)
	}
	return msg, nil
}

// progress walks the message through the timed status transitions. Each
// step goes through MutateMessage with a forward-only guard, so a slow
// timer can never move a status backward.
func (d *Driver) progress(chatID, msgID string, agentChat bool) {
	defer d.wg.Done()

	type step struct {
		wait time.Duration
		next models.Status
	}
	steps := []step{{d.delays.Sent, models.StatusSent}}
	if agentChat {
		steps = append(steps, step{d.delays.AgentRead, models.StatusRead})
	} else {
		steps = append(steps,
			step{d.delays.Delivered, models.StatusDelivered},
			step{d.delays.Read, models.StatusRead},
		)
	}

	for _, step := range steps {
		if !d.sleep(step.wait) {
			return
		}
		next := step.next
		err := d.repo.MutateMessage(chatID, msgID, func(m *models.Message) {
			if m.AdvanceStatus(next) {
				metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
			}
		})
		if err != nil {
			d.log.Warn("status_transition_failed",
				zap.String("chat", chatID), zap.String("message", msgID),
				zap.String("to", string(next)), zap.Error(err))
			return
		}
	}
}

// reply obtains the agent's answer and appends it to the current tail of
// the chat. The history is captured from the chat as it stood right after
// the send, excluding the message being answered.
func (d *Driver) reply(chat models.Chat, sent models.Message) {
	defer d.wg.Done()

	agent := chat.Counterpart()
	if agent == nil {
		return
	}
	d.repo.SetTyping(chat.ID, true)
	defer d.repo.SetTyping(chat.ID, false)

	var history []ai.Turn
	for i := range chat.Messages {
		m := &chat.Messages[i]
		if m.ID == sent.ID {
			continue
		}
		role := ai.RoleUser
		if m.SenderID == agent.ID {
			role = ai.RoleModel
		}
		history = append(history, ai.Turn{Role: role, Text: m.Text})
	}

	answer := d.responder.Reply(d.ctx, sent.Text, history)
	metrics.AgentReplies.Inc()
	if answer == ai.Fallback {
		metrics.AgentFallbacks.Inc()
	}

	reply := models.Message{
		ID:        models.NewMessageID(),
		SenderID:  agent.ID,
		Text:      answer,
		Timestamp: time.Now().UTC(),
		Status:    models.StatusRead,
	}
	if err := d.repo.AppendMessage(chat.ID, reply); err != nil {
		d.log.Warn("agent_reply_append_failed", zap.String("chat", chat.ID), zap.Error(err))
	}
}

// sleep waits for dur unless the driver is shutting down.
func (d *Driver) sleep(dur time.Duration) bool {
	if dur <= 0 {
		return d.ctx.Err() == nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// Wait blocks until all scheduled work has finished. Mainly for tests and
// orderly shutdown.
func (d *Driver) Wait() { d.wg.Wait() }

// Close cancels pending timers and the in-flight agent call, then waits
// for the background goroutines to drain.
func (d *Driver) Close() {
	d.cancel()
	d.wg.Wait()
}
