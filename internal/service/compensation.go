package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"vidtube/internal/storage"
)

type compensation struct {
	what   string
	handle string
	media  storage.Service
}

// compensations collects media deletes to undo on a failed registration.
// They run in reverse order unless committed; failures are logged only.
type compensations struct {
	steps     []compensation
	committed bool
}

func (c *compensations) add(what, handle string, media storage.Service) {
	c.steps = append(c.steps, compensation{what: what, handle: handle, media: media})
}

func (c *compensations) commit() {
	c.committed = true
}

func (c *compensations) run(ctx context.Context, log logrus.FieldLogger) {
	if c.committed {
		return
	}
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.media.Delete(context.WithoutCancel(ctx), step.handle); err != nil {
			log.WithError(err).WithField("handle", step.handle).Warnf("rollback: delete uploaded %s", step.what)
			continue
		}
		log.WithField("handle", step.handle).Infof("rollback: deleted uploaded %s", step.what)
	}
}
