package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jlin-dev/feedstream/feed"
	"github.com/jlin-dev/feedstream/global"
	"github.com/jlin-dev/feedstream/models"
)

const refreshAllTimeout = 15 * time.Minute

// Scheduler refreshes every known feed on a cron spec so timelines stay warm
// without anyone pressing refresh. The pull model is unchanged: this is just
// an automated puller, and a run that fails only logs.
type Scheduler struct {
	cron *cron.Cron
	opts feed.Options
}

func New(opts feed.Options) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		opts: opts,
	}
}

func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshAllTimeout)
	defer cancel()

	var feeds []models.Feed
	if err := global.DB.WithContext(ctx).Find(&feeds).Error; err != nil {
		log.Printf("Scheduled refresh: error loading feeds: %v", err)
		return
	}
	if len(feeds) == 0 {
		return
	}

	items, feedErrors, err := feed.Refresh(ctx, global.DB, feeds, s.opts)
	if err != nil {
		log.Printf("Scheduled refresh failed: %v", err)
		return
	}

	log.Printf("Scheduled refresh: %d feeds, %d items, %d failures",
		len(feeds), len(items), len(feedErrors))
}
