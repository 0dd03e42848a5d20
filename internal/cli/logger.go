package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/remoteop"
	logrusadapter "github.com/unkn0wn-root/remoteop/log/logrus"
	slogadapter "github.com/unkn0wn-root/remoteop/log/slog"
	zapadapter "github.com/unkn0wn-root/remoteop/log/zap"
)

// newLogger builds a JSON logger on w for the chosen backend.
func newLogger(format, level string, w io.Writer) (remoteop.Logger, error) {
	switch format {
	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return zapadapter.New(zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))), nil
	case "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return logrusadapter.New(l), nil
	case "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
		return slogadapter.New(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want zap, logrus or slog)", format)
	}
}
