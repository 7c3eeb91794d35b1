package sound

import (
	"context"
	"time"
)

// NullSink decodes clips without producing output. A session lasts as long as
// the clip would play, or ends at once when Instant is set.
type NullSink struct {
	Instant bool
}

func (s *NullSink) Start(ctx context.Context, data []byte) (Session, error) {
	clip, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stopped := make(chan struct{})
	sess := newSession(func() { close(stopped) })

	if s.Instant {
		sess.finish(nil)
		return sess, nil
	}

	go func() {
		t := time.NewTimer(clip.Duration())
		defer t.Stop()
		select {
		case <-t.C:
			sess.finish(nil)
		case <-stopped:
		}
	}()
	return sess, nil
}
