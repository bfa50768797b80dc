package server

import (
	"context"
	"log"
	"sort"
	"strings"
)

// logNotifier writes notification events to the process log. A real
// deployment replaces it with a mail or push dispatcher behind the same
// interface.
type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, event string, recipientEmployeeID string, payload map[string]string) error {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+payload[k])
	}
	log.Printf("notify event=%s recipient=%s %s", event, recipientEmployeeID, strings.Join(parts, " "))
	return nil
}
