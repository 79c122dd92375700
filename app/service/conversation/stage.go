package conversation

// Stage names the point in the intake dialogue that decides which handler
// runs on the next inbound message.
type Stage string

const (
	StageStart      Stage = "start"
	StageIntro      Stage = "intro"
	StagePosition   Stage = "position"
	StageMotivation Stage = "motivation_collect"
	StageQA         Stage = "qa_session"
	StageResume     Stage = "generate_resume"
	StageDone       Stage = "done"
)

// Stages lists every label the state machine can take, in dialogue order.
var Stages = []Stage{
	StageStart,
	StageIntro,
	StagePosition,
	StageMotivation,
	StageQA,
	StageResume,
	StageDone,
}

func (s Stage) Valid() bool {
	switch s {
	case StageStart, StageIntro, StagePosition, StageMotivation, StageQA, StageResume, StageDone:
		return true
	default:
		return false
	}
}

func (s Stage) Terminal() bool {
	return s == StageDone
}

func (s Stage) String() string {
	return string(s)
}
