package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/aitelhq/supportbot/internal/knowledge"
)

const reloadLockKey = "supportbot:kb:reload:lock"

// Scheduler reloads the corpus file on a cron cadence so operators can edit
// the file in place without restarting the service. With multiple replicas
// the redis lock keeps only one of them re-reading at a time; since every
// replica must refresh its own in-memory snapshot eventually, the lock TTL
// is short.
type Scheduler struct {
	Engine   *knowledge.Engine
	Path     string
	CronSpec string
	Rdb      *redis.Client
	Stop     chan struct{}
	Logger   *log.Logger

	last *time.Time
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	if !isDue(s.CronSpec, s.last) {
		return
	}
	ctx := context.Background()
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, reloadLockKey, "1", 30*time.Second).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, reloadLockKey)
	}
	now := time.Now()
	s.last = &now
	if err := s.Engine.ReloadFromFile(s.Path); err != nil {
		corpusReloads.WithLabelValues("error").Inc()
		if s.Logger != nil {
			s.Logger.Printf("scheduled reload failed: %v", err)
		}
	} else {
		corpusReloads.WithLabelValues("ok").Inc()
	}
	corpusEntries.Set(float64(s.Engine.Count()))
}

// isDue determines whether a reload with cronSpec should run now given the
// last reload time. Supports "@daily", "@hourly" and standard 5-field cron
// expressions; invalid specs degrade to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "":
		return false
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
