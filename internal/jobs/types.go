package jobs

type JobType string

const (
	// JobMessageNotify tells the receiver of a message that something landed in their inbox.
	JobMessageNotify JobType = "message.notify"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobMessageNotify:
		return true
	default:
		return false
	}
}
