package diagnostics

import (
	"ask-relay/internal/config"
	"ask-relay/internal/entity"
	"ask-relay/internal/ports"
	"ask-relay/pkg/logg"
	"ask-relay/pkg/tracing"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	archiverName   = "DiagnosticsArchiver"
	archiverTracer = "diagnostics.archiver"
	objectPrefix   = "exhaustion"
	defaultRegion  = "us-east-1"
)

// Archiver copies exhaustion artefacts to an S3-compatible bucket.
type Archiver struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

type manifest struct {
	RequestID  string             `json:"request_id"`
	URL        string             `json:"url"`
	CapturedAt time.Time          `json:"captured_at"`
	Screenshot string             `json:"screenshot,omitempty"`
	Summary    entity.PageSummary `json:"summary"`
}

// NewArchiver returns a nil archiver when no endpoint is configured.
func NewArchiver(params Params) (ports.DiagnosticsArchiver, error) {
	conf := params.Config.DiagnosticsConfig
	logger := params.Logger.With(zap.String(logg.Layer, archiverName))

	if conf == nil || conf.MinIOEndpoint == "" {
		logger.Info("Diagnostics archive disabled")

		return nil, nil
	}

	archiver, err := newMinIOArchiver(conf, logger)
	if err != nil {
		return nil, err
	}

	return archiver, nil
}

func newMinIOArchiver(conf *config.DiagnosticsConfig, logger *zap.Logger) (*Archiver, error) {
	client, err := minio.New(conf.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.MinIOAccessKey, conf.MinIOSecretKey, ""),
		Secure: conf.MinIOSecure,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Archiver{
		client: client,
		bucket: conf.MinIOBucket,
		logger: logger,
		tracer: otel.Tracer(archiverTracer),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}

	if exists {
		return nil
	}

	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("make bucket %s: %w", a.bucket, err)
	}

	a.logger.Info("Created diagnostics bucket", zap.String("bucket", a.bucket))

	return nil
}

func (a *Archiver) Archive(ctx context.Context, diag entity.Diagnostics) (err error) {
	const op = "Archive"
	logger := a.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.RequestID, diag.RequestID.String()),
	)

	ctx, step := tracing.StartSpan(ctx, a.tracer, logger, op,
		attribute.String(logg.RequestID, diag.RequestID.String()))
	defer func() {
		step.End(err)
	}()

	prefix := objectKeyPrefix(diag)

	summary, err := Summarize(diag.HTML)
	if err != nil {
		logger.Warn("Failed to summarize page HTML", zap.Error(err))
	}

	step.AddEvent("uploading page html")

	if _, err := a.client.PutObject(ctx, a.bucket, path.Join(prefix, "page.html"),
		strings.NewReader(diag.HTML), int64(len(diag.HTML)),
		minio.PutObjectOptions{ContentType: "text/html; charset=utf-8"}); err != nil {
		return fmt.Errorf("upload page html: %w", err)
	}

	m := manifest{
		RequestID:  diag.RequestID.String(),
		URL:        diag.URL,
		CapturedAt: diag.CapturedAt,
		Summary:    summary,
	}

	if diag.ScreenshotPath != "" {
		step.AddEvent("uploading screenshot")

		m.Screenshot = path.Join(prefix, "screenshot.png")
		if _, err := a.client.FPutObject(ctx, a.bucket, m.Screenshot, diag.ScreenshotPath,
			minio.PutObjectOptions{ContentType: "image/png"}); err != nil {
			return fmt.Errorf("upload screenshot: %w", err)
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if _, err := a.client.PutObject(ctx, a.bucket, path.Join(prefix, "manifest.json"),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}

	logger.Info("Diagnostics archived",
		zap.String("prefix", prefix),
		zap.String("title", summary.Title),
		zap.Bool("input_present", summary.InputPresent),
		zap.Int("turns", summary.TurnCount),
		zap.Int("answer_turns", summary.AnswerTurns))

	return nil
}

func objectKeyPrefix(diag entity.Diagnostics) string {
	return path.Join(objectPrefix, diag.CapturedAt.UTC().Format("2006-01-02"), diag.RequestID.String())
}
