package domain

import "encoding/json"

// CronTrigger is the trigger value sent by the scheduler for a poll cycle.
const CronTrigger = "cron"

// triggerKey is matched exactly; encoding/json would also accept "Trigger".
const triggerKey = "trigger"

// IsCronTrigger reports whether payload is a JSON object whose "trigger" key
// equals "cron". Anything else, including malformed JSON, is not a trigger.
func IsCronTrigger(payload []byte) bool {
	var event map[string]json.RawMessage
	if err := json.Unmarshal(payload, &event); err != nil {
		return false
	}
	raw, ok := event[triggerKey]
	if !ok {
		return false
	}
	var trigger string
	if err := json.Unmarshal(raw, &trigger); err != nil {
		return false
	}
	return trigger == CronTrigger
}
