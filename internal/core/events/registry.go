// Package events maps event-type tags to the preparers that turn a generic
// outbox context map into the typed record shipped to the event log.
//
// The outbox row deliberately stores an untyped map so the producing
// transaction never fails on schema drift; validation is deferred to the
// relay, where a bad row can be quarantined instead of aborting the business
// write. Adding an event type means registering one preparer.
package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/domain"
)

// Preparer is a pure function from a raw outbox context map to the typed
// payload for one (event_type, metadata_version) pair. It returns
// domain.ErrInvalidContext when a required field is missing or ill-typed.
type Preparer func(eventContext map[string]any) (any, error)

type registryKey struct {
	tag     domain.EventType
	version int
}

var (
	mu        sync.RWMutex
	preparers = make(map[registryKey]Preparer)
)

// Register installs a preparer for an event type and metadata version.
// Registration happens at startup (package init); lookups are safe from
// concurrent relay workers afterwards.
func Register(tag domain.EventType, metadataVersion int, p Preparer) {
	mu.Lock()
	defer mu.Unlock()
	preparers[registryKey{tag: tag, version: metadataVersion}] = p
}

// Lookup resolves the preparer for a (tag, metadata_version) pair.
func Lookup(tag domain.EventType, metadataVersion int) (Preparer, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := preparers[registryKey{tag: tag, version: metadataVersion}]
	if !ok {
		return nil, fmt.Errorf("%w: %s v%d", domain.ErrUnknownEventType, tag, metadataVersion)
	}
	return p, nil
}

// PrepareRecord resolves the preparer for a claimed outbox row and serializes
// its typed payload into the record shape of the event log.
func PrepareRecord(evt domain.OutboxEvent) (domain.SinkRecord, error) {
	preparer, err := Lookup(evt.EventType, evt.MetadataVersion)
	if err != nil {
		return domain.SinkRecord{}, err
	}

	payload, err := preparer(evt.EventContext)
	if err != nil {
		return domain.SinkRecord{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SinkRecord{}, fmt.Errorf("%w: %v", domain.ErrInvalidContext, err)
	}

	return domain.SinkRecord{
		EventType:       string(evt.EventType),
		EventDateTime:   evt.EventDateTime.UTC(),
		Environment:     evt.Environment,
		EventContext:    string(body),
		MetadataVersion: uint32(evt.MetadataVersion),
	}, nil
}
