package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	OperationID string    `json:"operation_id"`
	BadgeID     string    `json:"badge_id"`
	Credential  string    `json:"credential,omitempty"`
	Rows        []int     `json:"rows,omitempty"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
}

// Logger emits one structured line per ledger mutation or rejection, so the
// custody trail survives outside the sheet itself.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogExit(operationID, badgeID, credential, division string, row int) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "EXIT",
		OperationID: operationID,
		BadgeID:     badgeID,
		Credential:  credential,
		Rows:        []int{row},
		Status:      "SUCCESS",
		Details:     map[string]string{"division": division},
	})
}

func (a *Logger) LogEntry(operationID, badgeID, credential string, rows []int) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "ENTRY",
		OperationID: operationID,
		BadgeID:     badgeID,
		Credential:  credential,
		Rows:        rows,
		Status:      "SUCCESS",
	})
}

func (a *Logger) LogReconciliation(operationID, badgeID, credential string, row int) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "RECONCILE_ENTRY",
		OperationID: operationID,
		BadgeID:     badgeID,
		Credential:  credential,
		Rows:        []int{row},
		Status:      "SUCCESS",
	})
}

func (a *Logger) LogRejection(operationID, badgeID, reason string) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "REJECTED",
		OperationID: operationID,
		BadgeID:     badgeID,
		Status:      "REJECTED",
		Details:     map[string]string{"reason": reason},
	})
}

func (a *Logger) LogError(operationID, badgeID string, err error) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "ERROR",
		OperationID: operationID,
		BadgeID:     badgeID,
		Status:      "FAILED",
		Details:     map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
