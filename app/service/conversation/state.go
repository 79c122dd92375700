package conversation

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func userMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func assistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// PersonalInfo is what the introduction stage extracts. A nil field means
// the applicant did not mention it.
type PersonalInfo struct {
	Name        *string `json:"name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Age         *string `json:"age,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

func (p PersonalInfo) normalized() PersonalInfo {
	clean := func(v *string) *string {
		return lo.EmptyableToPtr(strings.TrimSpace(lo.FromPtr(v)))
	}

	return PersonalInfo{
		Name:        clean(p.Name),
		Department:  clean(p.Department),
		Age:         clean(p.Age),
		PhoneNumber: clean(p.PhoneNumber),
	}
}

// State is the per-session conversation state.
type State struct {
	SessionID string
	Messages  []Message

	PersonalInfo

	// Positions is nil until the position stage succeeds or is skipped.
	Positions         []string
	InitialMotivation *string
	Motivation        *string

	NextStage Stage
	UpdatedAt time.Time
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	s.Positions = slices.Clone(s.Positions)
	return s
}

func (s *State) lastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}

	return s.Messages[len(s.Messages)-1].Content
}

func (s *State) profile() *ProfileData {
	return &ProfileData{
		Name:        s.Name,
		Department:  s.Department,
		Age:         s.Age,
		PhoneNumber: s.PhoneNumber,
		Positions:   slices.Clone(s.Positions),
		Motivation:  s.Motivation,
	}
}

// Delta is what a stage handler returns. Messages are appended, every
// non-nil field overwrites the state, Next always replaces NextStage.
type Delta struct {
	Messages          []Message
	Personal          *PersonalInfo
	Positions         *[]string
	InitialMotivation *string
	Motivation        *string
	Next              Stage
}

func (s *State) apply(d *Delta) {
	s.Messages = append(s.Messages, d.Messages...)

	if d.Personal != nil {
		s.PersonalInfo = *d.Personal
	}
	if d.Positions != nil {
		s.Positions = slices.Clone(*d.Positions)
		if s.Positions == nil {
			s.Positions = []string{}
		}
	}
	if d.InitialMotivation != nil {
		s.InitialMotivation = d.InitialMotivation
	}
	if d.Motivation != nil {
		s.Motivation = d.Motivation
	}

	s.NextStage = d.Next
}

// ProfileData is the finished application handed to the submission sink and
// returned to the caller once the dialogue is done.
type ProfileData struct {
	Name        *string  `json:"name"`
	Department  *string  `json:"department"`
	Age         *string  `json:"age"`
	PhoneNumber *string  `json:"phone_number"`
	Positions   []string `json:"positions"`
	Motivation  *string  `json:"motivation"`
}

// Reply is the outcome of one turn.
type Reply struct {
	SessionID string
	Message   string
	NextStage Stage
	// Profile is set only when NextStage is StageDone.
	Profile *ProfileData
}
