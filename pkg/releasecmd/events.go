package releasecmd

type (
	// Sent to update the total stage count.
	EventSetStageTotal int

	// Sent when a stage has started.
	EventStartingStage string

	// Sent when a stage has finished, successfully or not.
	EventFinishedStage struct {
		Err   error
		Stage string
	}

	// Sent when all work has completed.
	EventDone struct {
		Err error
	}
)
