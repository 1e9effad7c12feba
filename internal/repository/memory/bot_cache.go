package memory

import (
	"aidly-widget-be/internal/entity"
	"time"

	"github.com/patrickmn/go-cache"
)

// BotCache keeps recently verified bots in memory so that the hot widget
// chat path does not hit the database for every message.
type BotCache struct {
	cache *cache.Cache
}

func NewBotCache() *BotCache {
	// Bot records change rarely; a short TTL keeps deactivation visible
	// within a minute while purging stale entries every 5 minutes.
	c := cache.New(1*time.Minute, 5*time.Minute)
	return &BotCache{
		cache: c,
	}
}

func (r *BotCache) Save(bot *entity.Bot) {
	r.cache.Set(bot.Id.String(), bot, cache.DefaultExpiration)
}

func (r *BotCache) Get(botID string) (*entity.Bot, bool) {
	if x, found := r.cache.Get(botID); found {
		return x.(*entity.Bot), true
	}
	return nil, false
}

func (r *BotCache) Invalidate(botID string) {
	r.cache.Delete(botID)
}
