package services

import (
	"log"

	pubnub "github.com/pubnub/go"
)

// Publisher fans messages out to staff sessions. Publishing is always
// best-effort; a failed notification never fails the action that caused it.
type Publisher interface {
	Publish(channel string, message map[string]any) error
}

type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) Publish(channel string, message map[string]any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// notify publishes fire-and-forget; failures are logged and swallowed.
func notify(pub Publisher, channel string, message map[string]any) {
	if pub == nil {
		return
	}
	go func() {
		if err := pub.Publish(channel, message); err != nil {
			log.Printf("notify: publish to %s failed: %v", channel, err)
		}
	}()
}
