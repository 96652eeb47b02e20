package realtime

import (
	"encoding/json"
	"fmt"

	"classroom-poll-backend/models"
)

// Room names address audiences, not connections. A client may sit in any
// number of rooms at once.
const (
	RoomTeacher  = "teacher"
	RoomStudents = "students"
	RoomChat     = "chat"
)

// PollRoom returns the room for clients following one specific poll.
func PollRoom(pollID uint) string {
	return fmt.Sprintf("poll:%d", pollID)
}

// Event types pushed to clients.
const (
	EventPollCreated   = "poll-created"
	EventPollStarted   = "poll-started"
	EventPollEnded     = "poll-ended"
	EventVoteSubmitted = "vote-submitted"
	EventChatMessage   = "chat-message"
)

// Event is the wire envelope for every broadcast. Each event type carries a
// fixed payload shape.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PollEndedPayload attaches the final tallies to the lifecycle transition so
// clients can render results without a follow-up read.
type PollEndedPayload struct {
	Poll        *models.Poll        `json:"poll"`
	LiveResults *models.LiveResults `json:"live_results,omitempty"`
}

// VoteSubmittedPayload carries the new vote plus the fresh tallies.
type VoteSubmittedPayload struct {
	Vote        *models.Vote        `json:"vote"`
	LiveResults *models.LiveResults `json:"live_results"`
}

func PollCreated(poll *models.Poll) Event {
	return Event{Type: EventPollCreated, Data: poll}
}

func PollStarted(poll *models.Poll) Event {
	return Event{Type: EventPollStarted, Data: poll}
}

func PollEnded(poll *models.Poll, results *models.LiveResults) Event {
	return Event{Type: EventPollEnded, Data: PollEndedPayload{Poll: poll, LiveResults: results}}
}

func VoteSubmitted(vote *models.Vote, results *models.LiveResults) Event {
	return Event{Type: EventVoteSubmitted, Data: VoteSubmittedPayload{Vote: vote, LiveResults: results}}
}

func ChatMessage(msg json.RawMessage) Event {
	return Event{Type: EventChatMessage, Data: msg}
}
