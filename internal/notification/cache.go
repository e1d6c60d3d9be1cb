package notification

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/shaharia-lab/alertmail/internal/config"
)

const fetchKey = "global"

// configCache holds the current mail configuration snapshot. The first reader
// on an empty cache subscribes the listener and fetches from the source;
// concurrent readers share that fetch. Pushed updates replace the snapshot
// atomically.
type configCache struct {
	source   config.MailConfigSource
	listener config.MailConfigListener

	current   atomic.Pointer[config.MailConfig]
	fetch     singleflight.Group
	subscribe sync.Once
}

func newConfigCache(source config.MailConfigSource, listener config.MailConfigListener) *configCache {
	return &configCache{source: source, listener: listener}
}

// get returns the cached snapshot, fetching it on first use.
func (c *configCache) get(ctx context.Context) (*config.MailConfig, error) {
	if cfg := c.current.Load(); cfg != nil {
		return cfg, nil
	}

	v, err, _ := c.fetch.Do(fetchKey, func() (any, error) {
		if cfg := c.current.Load(); cfg != nil {
			return cfg, nil
		}
		// Subscribe before fetching so an update pushed during the fetch is
		// not lost.
		c.subscribe.Do(func() { c.source.RegisterListener(c.listener) })

		fetched, err := c.source.GetGlobalConfig(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			return c.current.Load(), nil
		}
		fetched = fetched.Clone()
		if !c.current.CompareAndSwap(nil, fetched) {
			return c.current.Load(), nil
		}
		return fetched, nil
	})
	if err != nil {
		return nil, &ConfigurationUnavailableError{Err: err}
	}
	cfg, _ := v.(*config.MailConfig)
	if cfg == nil {
		return nil, &ConfigurationUnavailableError{}
	}
	return cfg, nil
}

// replace swaps in a new snapshot. A nil cfg is ignored.
func (c *configCache) replace(cfg *config.MailConfig) bool {
	if cfg == nil {
		return false
	}
	c.current.Store(cfg.Clone())
	return true
}
