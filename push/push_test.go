package push

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, p := range []string{"batch/0-A/x.gob", "batch/1-B/y.gob", "logs/run.log", ".DS_Store", "scratch.tmp"} {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(p), 0o644))
	}
	return dir
}

func TestWalkSkipsIgnored(t *testing.T) {
	dir := writeTree(t)
	files, err := Walk(dir, "pre/run-1", []string{"tmp", ".log"})
	require.NoError(t, err)

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"pre/run-1/batch/0-A/x.gob", "pre/run-1/batch/1-B/y.gob"}, keys)

	_, err = Walk(filepath.Join(dir, "missing"), "", nil)
	assert.Error(t, err)
}

func TestDirPublisher(t *testing.T) {
	src := writeTree(t)
	root := t.TempDir()
	d := &Dir{Root: root}

	require.NoError(t, d.UploadDir(context.Background(), src, "bucket", "p", []string{"tmp"}))
	got, err := os.ReadFile(filepath.Join(root, "bucket", "p", "batch", "1-B", "y.gob"))
	require.NoError(t, err)
	assert.Equal(t, "batch/1-B/y.gob", string(got))
	assert.NoFileExists(t, filepath.Join(root, "bucket", "p", ".DS_Store"))
	assert.NoFileExists(t, filepath.Join(root, "bucket", "p", "scratch.tmp"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.UploadDir(ctx, src, "bucket", "p", nil), context.Canceled)
}

type fakeS3 struct {
	puts map[string]string
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestS3UploadDir(t *testing.T) {
	src := writeTree(t)
	fake := &fakeS3{puts: map[string]string{}}
	p := newS3(fake, quietLogger())

	require.NoError(t, p.UploadDir(context.Background(), src, "results", "exp/run-1", []string{".tmp"}))
	assert.Equal(t, "batch/0-A/x.gob", fake.puts["results/exp/run-1/batch/0-A/x.gob"])
	assert.Contains(t, fake.puts, "results/exp/run-1/logs/run.log")
	assert.Len(t, fake.puts, 3)

	fake.err = errors.New("access denied")
	err := p.UploadDir(context.Background(), src, "results", "exp/run-1", nil)
	assert.ErrorContains(t, err, "access denied")
}
