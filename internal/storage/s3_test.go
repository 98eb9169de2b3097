package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3StorePut(t *testing.T) {
	t.Run("aws url", func(t *testing.T) {
		client := new(mockS3)
		store := newS3Store(client, S3Options{Bucket: "tees", Region: "eu-west-1"})

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "tees" &&
				aws.ToString(in.Key) == "products/u1/1_a.png" &&
				aws.ToString(in.ContentType) == "image/png" &&
				aws.ToInt64(in.ContentLength) == 3
		})).Return(&s3.PutObjectOutput{}, nil)

		url, err := store.Put(context.Background(), "products/u1/1_a.png", strings.NewReader("abc"), 3, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "https://tees.s3.eu-west-1.amazonaws.com/products/u1/1_a.png", url)
		client.AssertExpectations(t)
	})

	t.Run("custom endpoint url", func(t *testing.T) {
		client := new(mockS3)
		store := newS3Store(client, S3Options{Bucket: "tees", Region: "us-east-1", Endpoint: "http://minio:9000/"})
		client.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		url, err := store.Put(context.Background(), "k.png", strings.NewReader("abc"), 0, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/tees/k.png", url)
	})

	t.Run("client failure is wrapped", func(t *testing.T) {
		client := new(mockS3)
		store := newS3Store(client, S3Options{Bucket: "tees", Region: "us-east-1"})
		boom := errors.New("boom")
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := store.Put(context.Background(), "k.png", strings.NewReader("abc"), 3, "image/png")
		require.ErrorIs(t, err, boom)
	})
}

func TestS3StoreDelete(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, S3Options{Bucket: "tees", Region: "us-east-1"})
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "k.png"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, store.Delete(context.Background(), "k.png"))
	client.AssertExpectations(t)
}
