package worker

// Kind tags how a job ended.
type Kind int

const (
	// KindHit replayed a cached transcript without running the engine.
	KindHit Kind = iota + 1
	// KindSuccess ran the engine and delivered a fresh transcript.
	KindSuccess
	// KindEngineFailure means the engine reported a failure reason.
	KindEngineFailure
	// KindIoFailure covers download, hashing and delivery errors.
	KindIoFailure
)

func (k Kind) String() string {
	switch k {
	case KindHit:
		return "hit"
	case KindSuccess:
		return "success"
	case KindEngineFailure:
		return "engine_failure"
	case KindIoFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing one job.
type Outcome struct {
	Kind Kind
	// Reason explains a failure kind.
	Reason string
	// Transcript is the delivered text for Hit and Success.
	Transcript string
}

func hit(text string) Outcome     { return Outcome{Kind: KindHit, Transcript: text} }
func success(text string) Outcome { return Outcome{Kind: KindSuccess, Transcript: text} }

func engineFailure(reason string) Outcome {
	return Outcome{Kind: KindEngineFailure, Reason: reason}
}

func ioFailure(reason string) Outcome {
	return Outcome{Kind: KindIoFailure, Reason: reason}
}
