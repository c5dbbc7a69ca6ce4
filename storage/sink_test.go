package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWritesIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(filepath.Join(dir, "downloads"))

	location, err := sink.Save(context.Background(), "invoice-INV-1.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "downloads", "invoice-INV-1.pdf"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestFileSinkStaysInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	location, err := sink.Save(context.Background(), "../../etc/invoice-x.pdf", "", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoice-x.pdf"), location)

	_, err = sink.Save(context.Background(), "", "", []byte("x"))
	assert.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3SinkPutsObjectUnderPrefix(t *testing.T) {
	fake := &fakeS3{}
	sink := NewS3Sink(fake, "portfolio-downloads", "/invoices/")

	location, err := sink.Save(context.Background(), "invoice-INV-9.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "s3://portfolio-downloads/invoices/invoice-INV-9.pdf", location)
	assert.Equal(t, "portfolio-downloads", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "invoices/invoice-INV-9.pdf", aws.ToString(fake.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "%PDF", string(fake.body))
}

func TestS3SinkReportsUploadFailure(t *testing.T) {
	sink := NewS3Sink(&fakeS3{err: errors.New("access denied")}, "bucket", "")

	_, err := sink.Save(context.Background(), "a.zip", "", []byte("PK"))
	assert.ErrorContains(t, err, "access denied")
}
