package entity

// FinishOutcome names the terminal state reached by the finish saga.
type FinishOutcome string

const (
	OutcomeSummarized          FinishOutcome = "summarized"
	OutcomeNoTranscript        FinishOutcome = "no_transcript"
	OutcomeSummarizationFailed FinishOutcome = "summarization_failed"
	OutcomeStoreFailed         FinishOutcome = "store_failed"
)

type (
	FinishMeetingRequest struct {
		MeetingID string `validate:"required"`
	}

	// FinishMeetingResponse is returned even when the saga stops early, so the
	// caller always sees the finished meeting next to the outcome.
	FinishMeetingResponse struct {
		Meeting    *Meeting
		Outcome    FinishOutcome
		Summary    string
		Transcript *Transcript
	}
)
