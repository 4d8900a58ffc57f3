// Package telephony abstracts the voice/SMS provider behind small interfaces
// so services can be tested with fakes and wired to Twilio in production.
package telephony

import "context"

// PlaceCallRequest carries everything the provider needs to originate a call.
type PlaceCallRequest struct {
	To                string
	From              string
	ResponseURL       string // webhook answered calls fetch instructions from
	StatusCallbackURL string
	MachineDetection  bool
	RingTimeoutSecs   int
}

// Dialer places outbound calls. The provider reports lifecycle transitions
// asynchronously via the status callback URL.
type Dialer interface {
	PlaceCall(ctx context.Context, req PlaceCallRequest) (providerCallID string, err error)
}

// SMSSender delivers a single text message and returns the provider's
// message identifier.
type SMSSender interface {
	Send(ctx context.Context, to, from, body string) (externalID string, err error)
}
