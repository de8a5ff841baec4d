package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/doc/file.pdf", want: "user/doc/file.pdf"},
		{name: "simple prefix", prefix: "originals", key: "user/doc/file.pdf", want: "originals/user/doc/file.pdf"},
		{name: "prefix and key slashes", prefix: "/originals/", key: "/user/doc/file.pdf", want: "originals/user/doc/file.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, applyPrefix(tt.prefix, tt.key))
		})
	}
}

// fakeS3 keeps objects in a map keyed by object key.
type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store, err := NewWithClient(fake, "filing-docs", "originals/", "kms-key")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Put(ctx, "u/d/w2.pdf", []byte("%PDF-1.7"), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Contains(t, fake.objects, "originals/u/d/w2.pdf")

	require.Len(t, fake.puts, 1)
	put := fake.puts[0]
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, put.ServerSideEncryption)
	assert.Equal(t, "kms-key", aws.ToString(put.SSEKMSKeyId))
	assert.NotEmpty(t, aws.ToString(put.ChecksumSHA256))

	got, err := store.Get(ctx, "u/d/w2.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), got)

	require.NoError(t, store.Delete(ctx, "u/d/w2.pdf"))
	_, err = store.Get(ctx, "u/d/w2.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestNewWithClientRequiresBucket(t *testing.T) {
	_, err := NewWithClient(&fakeS3{}, " ", "", "")
	assert.Error(t, err)
}
