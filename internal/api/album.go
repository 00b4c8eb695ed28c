package telegram

import (
	"sync"
	"time"
)

// albumPhoto: один снимок из альбома Telegram.
type albumPhoto struct {
	fileID string
	name   string
}

// album: снимки с общим media_group_id. Telegram присылает их отдельными сообщениями.
type album struct {
	groupID string
	userID  int64
	chatID  int64
	photos  []albumPhoto
	timer   *time.Timer
}

// albumCollector копит снимки альбома и отдаёт их пачкой,
// когда wait проходит без новых сообщений этой группы.
type albumCollector struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*album
	flush   func(a *album)
}

func newAlbumCollector(wait time.Duration, flush func(a *album)) *albumCollector {
	return &albumCollector{
		wait:    wait,
		pending: make(map[string]*album),
		flush:   flush,
	}
}

func (c *albumCollector) add(groupID string, userID, chatID int64, p albumPhoto) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.pending[groupID]
	if !ok {
		a = &album{groupID: groupID, userID: userID, chatID: chatID}
		a.timer = time.AfterFunc(c.wait, func() { c.fire(groupID) })
		c.pending[groupID] = a
	} else {
		a.timer.Reset(c.wait)
	}
	a.photos = append(a.photos, p)
}

// fire забирает альбом; повторный вызов после Reset уже ничего не находит.
func (c *albumCollector) fire(groupID string) {
	c.mu.Lock()
	a, ok := c.pending[groupID]
	delete(c.pending, groupID)
	c.mu.Unlock()

	if ok {
		c.flush(a)
	}
}
