// Package catalog holds the static outreach sequence definitions and the
// message templates each step renders.
package catalog

import "github.com/calltide/outreach-server/internal/model"

// Step is one scheduled communication in a nurture sequence. DelayDays is the
// minimum whole days that must have elapsed since the most recent outreach
// record for the prospect, regardless of which step produced it.
type Step struct {
	Channel   model.Channel
	Key       string
	DelayDays int
}

// Missed-call flow: SMS1 -> (wait 1d) -> Email1 -> (wait 3d) -> SMS2 ->
// (wait 5d) -> Email2 -> (wait 7d) -> Email3. Also used for voicemail and
// for prospects with no audit result yet.
var missedSequence = []Step{
	{Channel: model.ChannelSMS, Key: "missed_sms_1", DelayDays: 0},
	{Channel: model.ChannelEmail, Key: "missed_call_1", DelayDays: 1},
	{Channel: model.ChannelSMS, Key: "missed_sms_2", DelayDays: 3},
	{Channel: model.ChannelEmail, Key: "missed_call_2", DelayDays: 5},
	{Channel: model.ChannelEmail, Key: "missed_call_3", DelayDays: 7},
}

// Answered flow: a single lighter-touch email, since someone picks up.
var answeredSequence = []Step{
	{Channel: model.ChannelEmail, Key: "answered_1", DelayDays: 1},
}

// ForAuditResult selects the sequence for a prospect's audit outcome.
// Missed, voicemail and not-yet-audited prospects all get the missed flow.
func ForAuditResult(result *model.AuditResult) []Step {
	if result != nil && *result == model.AuditAnswered {
		return answeredSequence
	}
	return missedSequence
}
