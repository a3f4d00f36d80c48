package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the loadgen command", t, func() {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)

		convey.Convey("Then every run setting is a flag", func() {
			for _, name := range []string{"url", "events", "lat", "lng", "spread-km", "hot-spots", "seed", "top", "workers", "rank-check", "timeout", "wait", "output", "run-timeout"} {
				convey.So(cmd.Flags().Lookup(name), convey.ShouldNotBeNil)
			}
			convey.So(cmd.PersistentFlags().Lookup("log-level"), convey.ShouldNotBeNil)
		})

		convey.Convey("When help is requested", func() {
			cmd.SetArgs([]string{"--help"})
			err := cmd.Execute()

			convey.Convey("Then usage is printed without running", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "--spread-km")
			})
		})

		convey.Convey("When the server is unreachable", func() {
			cmd.SetArgs([]string{"--url", "http://127.0.0.1:1", "--timeout", "1s", "--log-level", "error", "--log-format", "json"})
			err := cmd.Execute()

			convey.Convey("Then the run fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cmd.SetArgs([]string{"--log-format", "xml"})
			convey.So(cmd.Execute(), convey.ShouldNotBeNil)
		})
	})
}
