// Package notify is the boundary to the external notification service.
// Delivery failures are the matching pass's problem to log, never to retry
// inline.
package notify

import (
	"context"
	"log"
)

type Notifier interface {
	// Notify announces a newly created instant-alert match.
	Notify(ctx context.Context, userID, jobID string, matchScore int) error
}

// LogNotifier just logs. Used in dev and whenever no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, userID, jobID string, matchScore int) error {
	log.Printf("[notify] instant alert user=%s job=%s score=%d", userID, jobID, matchScore)
	return nil
}
