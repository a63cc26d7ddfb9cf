// Package janitor periodically removes revocation entries that have outlived their tokens.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/socialpulse/backend/internal/security"
)

// ExpiredPurger is implemented by backends that do not expire entries on their own.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Janitor struct {
	cron      *cron.Cron
	blacklist *security.Blacklist
	timeout   time.Duration
	log       logrus.FieldLogger
}

func New(blacklist *security.Blacklist, timeout time.Duration, log logrus.FieldLogger) *Janitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Janitor{
		cron:      cron.New(),
		blacklist: blacklist,
		timeout:   timeout,
		log:       log.WithField("component", "janitor"),
	}
}

// Start schedules Run on spec, e.g. "@every 10m".
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Run); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}
	j.cron.Start()
	return nil
}

// Stop waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) Run() {
	removed := j.blacklist.Purge(time.Now())

	var purgedRows int64
	if purger, ok := j.blacklist.Backend(context.Background()).(ExpiredPurger); ok {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		n, err := purger.PurgeExpired(ctx)
		if err != nil {
			j.log.WithError(err).Warn("failed to purge expired revocations")
		}
		purgedRows = n
	}

	if removed > 0 || purgedRows > 0 {
		j.log.Infof("Cleaned %d in-memory and %d stored revocations", removed, purgedRows)
	}
}
