package service

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/eventmap/internal/adapters/mq/worker"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestRecompute(t *testing.T) {
	convey.Convey("Given a started service with two snapshot versions", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := New(WithWorkerCount(1), WithLogger(logger.Nop()))
		convey.So(s.Start(ctx), convey.ShouldBeNil)
		defer s.Stop()

		events := []model.Event{
			{ID: "x", Location: model.Coordinate{Lat: 1, Lng: 1}, Capacity: 5, CurrentRegistrations: 1, DurationHours: 1},
			{ID: "y", Location: model.Coordinate{Lat: 1.001, Lng: 1}, Capacity: 5, CurrentRegistrations: 1, DurationHours: 1},
		}
		_, err := s.ReplaceEvents(ctx, events)
		convey.So(err, convey.ShouldBeNil)
		_, err = s.ReplaceEvents(ctx, events[:1])
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a job for the superseded version runs", func() {
			err := s.recompute(ctx, model.Job{ID: "old", Kind: model.JobRecompute, Version: 1})

			convey.Convey("Then it is skipped", func() {
				convey.So(errors.Is(err, worker.ErrSkipped), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a job for the current version runs", func() {
			err := s.recompute(ctx, model.Job{ID: "new", Kind: model.JobRecompute, Version: 2})

			convey.Convey("Then every derived structure carries that version", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.clusters.Version(), convey.ShouldEqual, 2)
				convey.So(s.board.Version(), convey.ShouldEqual, 2)
				convey.So(s.board.Count(ctx), convey.ShouldEqual, 1)
				convey.So(s.computed.Load(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a job of an unknown kind arrives", func() {
			err := s.recompute(ctx, model.Job{ID: "odd", Kind: "reindex", Version: 2})

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, worker.ErrSkipped), convey.ShouldBeFalse)
			})
		})
	})
}
