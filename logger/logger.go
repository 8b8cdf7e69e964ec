package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultPrefix names log files <prefix>_latest.log.
	DefaultPrefix = "ue4ss_installer"

	rotatedTimeLayout = "01_02_2006_1504_05"
)

var (
	// Log is a no-op until InitLogger runs so packages and tests can log freely.
	Log       = zap.NewNop().Sugar()
	ZapLogger = zap.NewNop() // Expose the raw zap Logger
)

// Options controls where and how the logger writes.
type Options struct {
	Dir         string // Directory holding the log files
	Prefix      string // Log file name prefix, DefaultPrefix when empty
	DisableFile bool   // Only log to stderr
	Verbose     bool   // Echo info level to stderr instead of warn
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "T", // Keep time key brief
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",              // Disable caller key
		FunctionKey:      zapcore.OmitKey, // Disable function key
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,                        // INFO, WARN, etc.
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"), // Simpler time format
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "  ",
	}
}

// InitLogger builds the global logger. An existing <prefix>_latest.log is
// renamed with a timestamp first so every session starts a fresh file.
func InitLogger(opts Options) error {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	stderrLevel := zap.WarnLevel
	if opts.Verbose {
		stderrLevel = zap.InfoLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), stderrLevel),
	}

	var logPath string
	if !opts.DisableFile {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
		}
		if _, err := rotateLatestLog(opts.Dir, opts.Prefix, time.Now()); err != nil {
			// Keep appending to the old file rather than failing startup.
			fmt.Fprintf(os.Stderr, "Error renaming log file: %v\n", err)
		}

		logPath = latestLogPath(opts.Dir, opts.Prefix)
		logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("can't open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.AddSync(logFile),
			zap.InfoLevel,
		))
	}

	ZapLogger = zap.New(zapcore.NewTee(cores...))
	Log = ZapLogger.Sugar()
	if logPath != "" {
		Log.Infow("Logger initialized", zap.String("file", logPath))
	}
	return nil
}

func latestLogPath(dir, prefix string) string {
	return filepath.Join(dir, prefix+"_latest.log")
}

// rotateLatestLog renames <prefix>_latest.log to <prefix>_<timestamp>.log,
// appending _(n) when that name is taken. It returns the new path, or "" if
// there was nothing to rotate.
func rotateLatestLog(dir, prefix string, now time.Time) (string, error) {
	latest := latestLogPath(dir, prefix)
	info, err := os.Stat(latest)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", latest)
	}

	stamp := now.Format(rotatedTimeLayout)
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.log", prefix, stamp))
	for counter := 1; fileExists(target); counter++ {
		target = filepath.Join(dir, fmt.Sprintf("%s_%s_(%d).log", prefix, stamp, counter))
	}

	if err := os.Rename(latest, target); err != nil {
		return "", err
	}
	return target, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync() // flushes buffer, if any
	}
}
