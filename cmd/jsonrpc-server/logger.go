package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shaharia-lab/jsonrpc"
	"github.com/shaharia-lab/jsonrpc/internal/config"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg config.LogConfig, out io.Writer) (jsonrpc.Logger, error) {
	level := strings.ToLower(cfg.Level)

	switch strings.ToLower(cfg.Backend) {
	case "", "logrus":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		l := logrus.New()
		l.SetOutput(out)
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return jsonrpc.NewLogrusLogger(l), nil

	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(out),
			zap.NewAtomicLevelAt(lvl),
		)
		return jsonrpc.NewZapLogger(zap.New(core)), nil

	case "zerolog":
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		return jsonrpc.NewZerologLogger(zerolog.New(out).Level(lvl).With().Timestamp().Logger()), nil

	case "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
		return jsonrpc.NewSlogLogger(slog.New(h)), nil

	case "std":
		return &jsonrpc.DefaultLogger{Logger: log.New(out, "", log.LstdFlags)}, nil

	case "none":
		return jsonrpc.NewNullLogger(), nil
	}

	return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
}
