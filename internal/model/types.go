package model

import "time"

// ProspectStatus tracks a prospect through the outreach funnel.
type ProspectStatus string

const (
	StatusNew            ProspectStatus = "new"
	StatusAuditScheduled ProspectStatus = "audit_scheduled"
	StatusAuditComplete  ProspectStatus = "audit_complete"
	StatusOutreachActive ProspectStatus = "outreach_active"
	StatusOutreachPaused ProspectStatus = "outreach_paused"
	StatusDemoBooked     ProspectStatus = "demo_booked"
	StatusConverted      ProspectStatus = "converted"
	StatusDisqualified   ProspectStatus = "disqualified"
)

// AuditResult classifies how an audit call ended: did a human pick up,
// did it hit voicemail, ring out, or fail outright.
type AuditResult string

const (
	AuditAnswered  AuditResult = "answered"
	AuditVoicemail AuditResult = "voicemail"
	AuditMissed    AuditResult = "missed"
	AuditFailed    AuditResult = "failed"
)

// Channel is the delivery medium for an outreach step.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// CallStatus mirrors the telephony provider's call lifecycle.
type CallStatus string

const (
	CallQueued     CallStatus = "queued"
	CallInitiated  CallStatus = "initiated"
	CallRinging    CallStatus = "ringing"
	CallInProgress CallStatus = "in-progress"
	CallCompleted  CallStatus = "completed"
	CallNoAnswer   CallStatus = "no-answer"
	CallBusy       CallStatus = "busy"
	CallFailed     CallStatus = "failed"
	CallCanceled   CallStatus = "canceled"
)

// IsTerminal reports whether the status ends the call lifecycle.
// Canceled is reachable but carries no audit outcome.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallCompleted, CallNoAnswer, CallBusy, CallFailed:
		return true
	}
	return false
}

// OutreachStatus is the delivery state of a sent communication.
type OutreachStatus string

const (
	OutreachSent    OutreachStatus = "sent"
	OutreachOpened  OutreachStatus = "opened"
	OutreachClicked OutreachStatus = "clicked"
	OutreachBounced OutreachStatus = "bounced"
)

// Prospect is a scraped or imported sales lead.
type Prospect struct {
	ProspectID   string         `json:"prospectId"`
	PlaceID      *string        `json:"placeId,omitempty"`
	BusinessName string         `json:"businessName"`
	Phone        string         `json:"phone,omitempty"`
	Email        string         `json:"email,omitempty"`
	Website      string         `json:"website,omitempty"`
	Address      string         `json:"address,omitempty"`
	City         string         `json:"city,omitempty"`
	State        string         `json:"state,omitempty"`
	Vertical     string         `json:"vertical,omitempty"`
	Rating       *float64       `json:"rating,omitempty"`
	ReviewCount  *int           `json:"reviewCount,omitempty"`
	LeadScore    int            `json:"leadScore"`
	Status       ProspectStatus `json:"status"`
	AuditResult  *AuditResult   `json:"auditResult,omitempty"`
	SMSOptOut    bool           `json:"smsOptOut"`
	Tags         []string       `json:"tags,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Source       string         `json:"source"`
	CreationTime time.Time      `json:"creationTime"`
	UpdateTime   time.Time      `json:"updateTime"`
}

// AuditCall is one attempted audit call to a prospect.
type AuditCall struct {
	CallID         string     `json:"callId"`
	ProspectID     string     `json:"prospectId"`
	ProviderCallID string     `json:"providerCallId,omitempty"`
	FromNumber     string     `json:"fromNumber"`
	ToNumber       string     `json:"toNumber"`
	Status         CallStatus `json:"status"`
	DurationSecs   *int       `json:"durationSeconds,omitempty"`
	AnsweredBy     string     `json:"answeredBy,omitempty"`
	ScheduledAt    time.Time  `json:"scheduledAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreationTime   time.Time  `json:"creationTime"`
}

// OutreachRecord is the persisted evidence that a sequence step executed.
// The planner treats the presence of a record with a given template key as
// "this step already ran"; records are never deleted.
type OutreachRecord struct {
	OutreachID   string         `json:"outreachId"`
	ProspectID   string         `json:"prospectId"`
	Channel      Channel        `json:"channel"`
	TemplateKey  string         `json:"templateKey"`
	Status       OutreachStatus `json:"status"`
	ExternalID   string         `json:"externalId,omitempty"`
	SentAt       time.Time      `json:"sentAt"`
	OpenedAt     *time.Time     `json:"openedAt,omitempty"`
	ClickedAt    *time.Time     `json:"clickedAt,omitempty"`
	CreationTime time.Time      `json:"creationTime"`
}

// ActivityEntry is an append-only operator-visible trail entry.
type ActivityEntry struct {
	ActivityID   string    `json:"activityId"`
	Type         string    `json:"type"`
	EntityType   string    `json:"entityType,omitempty"`
	EntityID     string    `json:"entityId,omitempty"`
	Title        string    `json:"title"`
	Detail       string    `json:"detail,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// ListProspectsRequest captures filters used when listing prospects.
type ListProspectsRequest struct {
	Status ProspectStatus
	Limit  int
}
