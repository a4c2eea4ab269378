package service

import (
	"sync"

	"github.com/farmhub/paygate/db/models"
	"github.com/google/uuid"
)

type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan models.Payment
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan models.Payment)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan models.Payment) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.Payment)
	}
	subId = uuid.NewString()
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Publish never blocks. A subscriber whose channel is full misses the
// message, so consumers that must not lose payments subscribe with a
// buffered channel and drain promptly. The payment record stays the
// source of truth either way.
func (ps *Pubsub) Publish(topic string, msg models.Payment) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}
