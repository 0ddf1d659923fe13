// Package svcmgr implements services.Controller on top of the host's
// service manager: the Windows Service Control Manager or systemd.
package svcmgr

import (
	"sync"
	"time"
)

// pollInterval is how often a pending start or stop is re-checked.
const pollInterval = 250 * time.Millisecond

// lastErrors remembers the most recent failure text per service.
type lastErrors struct {
	mu   sync.Mutex
	text map[string]string
}

func (l *lastErrors) set(name string, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.text == nil {
		l.text = make(map[string]string)
	}
	if err == nil {
		delete(l.text, name)
		return nil
	}
	l.text[name] = err.Error()
	return err
}

func (l *lastErrors) get(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text[name]
}
