package cloudwriter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3WriterUploadsOnClose(t *testing.T) {
	client := &fakeS3{}
	factory := NewS3WriterFactoryWithClient(client)

	w, err := factory.NewWriter(context.Background(), "reports", "runs/abc/results.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"run_id":`))
	require.NoError(t, err)
	_, err = w.Write([]byte(`"abc"}`))
	require.NoError(t, err)
	assert.Empty(t, client.inputs)

	require.NoError(t, w.Close())
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "reports", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, "runs/abc/results.json", aws.ToString(client.inputs[0].Key))
	assert.Equal(t, "application/json", aws.ToString(client.inputs[0].ContentType))
	assert.Equal(t, `{"run_id":"abc"}`, string(client.bodies[0]))

	// a second close does not upload again, and writes are refused
	require.NoError(t, w.Close())
	assert.Len(t, client.inputs, 1)
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}

func TestS3WriterErrors(t *testing.T) {
	factory := NewS3WriterFactoryWithClient(&fakeS3{})
	_, err := factory.NewWriter(context.Background(), "", "x.csv")
	assert.Error(t, err)

	denied := errors.New("access denied")
	w, err := NewS3WriterFactoryWithClient(&fakeS3{err: denied}).NewWriter(context.Background(), "b", "x.csv")
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), denied)
}
