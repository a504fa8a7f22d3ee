package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fortuna/rinkside/internal/logging"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogging(t *testing.T) {
	Convey("Given level names", t, func() {
		So(logging.ParseLevel("debug"), ShouldEqual, slog.LevelDebug)
		So(logging.ParseLevel(" WARN "), ShouldEqual, slog.LevelWarn)
		So(logging.ParseLevel("error"), ShouldEqual, slog.LevelError)
		So(logging.ParseLevel("verbose"), ShouldEqual, slog.LevelInfo)
	})

	Convey("Given a JSON logger at warn", t, func() {
		var buf bytes.Buffer
		l := logging.NewWithWriter(&buf, "warn", "json")

		l.Info("dropped")
		So(buf.Len(), ShouldEqual, 0)

		l.Warn("row skipped", "game_id", 7)
		var rec map[string]any
		So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
		So(rec["msg"], ShouldEqual, "row skipped")
		So(rec["game_id"], ShouldEqual, float64(7))
	})

	Convey("Given a nil logger the default is used", t, func() {
		So(logging.OrDefault(nil), ShouldEqual, slog.Default())
	})
}
