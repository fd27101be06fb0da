// internal/domain/homework/status.go
package homework

import "fmt"

// Status is the review status code reported by the homework API.
type Status string

const (
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable text shown to the student for a status.
func Verdict(status Status) (string, error) {
	verdict, ok := verdicts[status]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndocumentedStatus, string(status))
	}
	return verdict, nil
}

// Submission is a single homework entry from one API response.
type Submission struct {
	Name   string
	Status Status
}

// StatusChangedMessage formats the notification sent when a submission changes status.
func StatusChangedMessage(name, verdict string) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", name, verdict)
}

// FailureMessage formats the operator notification for a failed iteration.
func FailureMessage(err error) string {
	return fmt.Sprintf("Сбой в работе программы: %v", err)
}
