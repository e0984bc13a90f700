package api

import (
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/sse"
)

// Presenter bridges session presentation callbacks onto the SSE stream so
// connected UIs can mirror window and title state.
type Presenter struct {
	broker *sse.Broker
}

// NewPresenter creates a Presenter publishing to broker.
func NewPresenter(broker *sse.Broker) *Presenter {
	return &Presenter{broker: broker}
}

var _ session.Presenter = (*Presenter)(nil)

func (p *Presenter) WindowOpened(item models.ItemView) {
	p.broker.PublishItemEvent("item.opened", item)
}

func (p *Presenter) WindowActivated(item models.ItemView) {
	p.broker.PublishItemEvent("item.activated", item)
}

func (p *Presenter) WindowRetitled(item models.ItemView) {
	p.broker.PublishItemEvent("item.retitled", item)
}

func (p *Presenter) WindowClosed(item models.ItemView) {
	p.broker.PublishItemEvent("item.closed", item)
}

func (p *Presenter) SessionTitle(title string, dirty bool) {
	p.broker.Publish(sse.Event{Type: "session.title", Data: map[string]any{
		"title": title,
		"dirty": dirty,
	}})
}

func (p *Presenter) SaveStarted() {
	p.broker.Publish(sse.Event{Type: "session.saving", Data: map[string]any{}})
}

func (p *Presenter) SaveFinished(outcome session.SaveOutcome) {
	data := map[string]any{"status": outcome.Status.String()}
	if outcome.Err != nil {
		data["error"] = outcome.Err.Error()
	}
	p.broker.Publish(sse.Event{Type: "session.saved", Data: data})
}
