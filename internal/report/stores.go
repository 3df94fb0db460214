package report

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// MsgpackReportStore writes the same Report as FileReportStore but encoded
// with msgpack instead of JSON, for callers that archive many reports and
// want a denser on-disk representation.
type MsgpackReportStore struct {
	Dir string
}

func NewMsgpackReportStore(dir string) *MsgpackReportStore {
	return &MsgpackReportStore{Dir: dir}
}

func (s *MsgpackReportStore) Save(r autofix.Report) (string, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("report: msgpack marshal: %w", err)
	}
	path := fmt.Sprintf("%s/report_%s.msgpack", s.Dir, timestampName())
	return path, writeFile(path, data)
}

// RedisReportStore keys each report by run ID under a fixed prefix, for
// deployments that want report history shared across instances rather than
// living on one instance's local disk.
type RedisReportStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{Client: client, Prefix: "autofix:report:", TTL: 30 * 24 * time.Hour}
}

func (s *RedisReportStore) Save(r autofix.Report) (string, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("report: msgpack marshal: %w", err)
	}
	key := s.Prefix + r.RunID
	if err := s.Client.Set(context.Background(), key, data, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("report: redis set %s: %w", key, err)
	}
	return key, nil
}

// S3Uploader is the one upload call Save needs from an S3-compatible client.
// This package ships no implementation: *s3.Client from aws-sdk-go-v2 does
// not satisfy it directly and needs a small adapter, so this package does
// not import the SDK.
type S3Uploader interface {
	PutReport(ctx context.Context, bucket, key string, body []byte) error
}

// S3ReportStore uploads the JSON-encoded report to an object store. Sketched
// for deployments running the repair engine as a stateless worker fleet with
// no shared filesystem; not wired into cmd/autofixctl by default.
type S3ReportStore struct {
	Uploader S3Uploader
	Bucket   string
	Prefix   string
}

func (s *S3ReportStore) Save(r autofix.Report) (string, error) {
	data, err := jsonMarshalIndent(r)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%sreport_%s.json", s.Prefix, timestampName())
	if err := s.Uploader.PutReport(context.Background(), s.Bucket, key, data); err != nil {
		return "", fmt.Errorf("report: s3 put %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}
