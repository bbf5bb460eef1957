package model

import (
	"sync"
	"time"
)

// Level is the severity of a flash message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelErr
)

// Flash holds a transient status line message.
type Flash struct {
	mu      sync.RWMutex
	message string
	level   Level
	expires time.Time
}

// Set stores an info message that expires after d.
func (f *Flash) Set(msg string, d time.Duration) {
	f.SetLevel(LevelInfo, msg, d)
}

// SetLevel stores a message of the given level that expires after d.
func (f *Flash) SetLevel(level Level, msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.level = level
	f.expires = time.Now().Add(d)
}

// Get returns the current message, or empty if expired.
func (f *Flash) Get() string {
	msg, _ := f.Current()
	return msg
}

// Current returns the current message and its level.
func (f *Flash) Current() (string, Level) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return "", LevelInfo
	}
	return f.message, f.level
}
