package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeEvent reads the wire form shared by every entry source:
// {"feed": {"url": "..."}, "entry": {"guid": "...", "title": "...", ...}}.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Entry.GUID == "" {
		return Event{}, errors.New("decode event: entry guid is empty")
	}
	if ev.Feed.URL == "" {
		return Event{}, errors.New("decode event: feed url is empty")
	}
	return ev, nil
}
