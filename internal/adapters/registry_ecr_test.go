package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"registry-pruner/internal/types"
)

type fakeECR struct {
	pages     [][]ecrtypes.ImageIdentifier
	listErr   error
	deleteErr error
	failures  []ecrtypes.ImageFailure
	deleted   []ecrtypes.ImageIdentifier
	listCalls int
}

func (f *fakeECR) ListImages(ctx context.Context, params *ecr.ListImagesInput, optFns ...func(*ecr.Options)) (*ecr.ListImagesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	index := 0
	if params.NextToken != nil {
		for i := range f.pages {
			if aws.ToString(params.NextToken) == pageToken(i) {
				index = i
			}
		}
	}
	f.listCalls++
	out := &ecr.ListImagesOutput{}
	if index < len(f.pages) {
		out.ImageIds = f.pages[index]
	}
	if index+1 < len(f.pages) {
		out.NextToken = aws.String(pageToken(index + 1))
	}
	return out, nil
}

func (f *fakeECR) BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, params.ImageIds...)
	return &ecr.BatchDeleteImageOutput{Failures: f.failures}, nil
}

func pageToken(index int) string {
	return "page-" + string(rune('a'+index))
}

func TestRegistryECRAdapterListImagesPaginates(t *testing.T) {
	client := &fakeECR{pages: [][]ecrtypes.ImageIdentifier{
		{
			{ImageTag: aws.String("develop-1"), ImageDigest: aws.String("sha256:aaa")},
			{ImageTag: aws.String("develop-2"), ImageDigest: aws.String("sha256:bbb")},
		},
		{
			{ImageDigest: aws.String("sha256:ccc")},
		},
	}}
	adapter := NewRegistryECRAdapterWithClient(client, "")

	images, err := adapter.ListImages(t.Context(), "svc")
	require.NoError(t, err)
	expected := []types.ImageRecord{
		{Tag: "develop-1", Digest: "sha256:aaa"},
		{Tag: "develop-2", Digest: "sha256:bbb"},
		{Digest: "sha256:ccc"},
	}
	if diff := cmp.Diff(expected, images); diff != "" {
		t.Fatalf("unexpected images (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, client.listCalls)
}

func TestRegistryECRAdapterErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errbuilder.ErrCode
	}{
		{
			name:     "missing repository",
			err:      &ecrtypes.RepositoryNotFoundException{Message: aws.String("no such repository")},
			wantCode: errbuilder.CodeNotFound,
		},
		{
			name:     "transport failure",
			err:      errors.New("connection reset"),
			wantCode: errbuilder.CodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewRegistryECRAdapterWithClient(&fakeECR{listErr: tt.err, deleteErr: tt.err}, "")
			_, err := adapter.ListImages(t.Context(), "svc")
			require.Equal(t, tt.wantCode, errbuilder.CodeOf(err))
			err = adapter.DeleteByTag(t.Context(), "svc", "develop-1")
			require.Equal(t, tt.wantCode, errbuilder.CodeOf(err))
		})
	}
}

func TestRegistryECRAdapterDelete(t *testing.T) {
	client := &fakeECR{}
	adapter := NewRegistryECRAdapterWithClient(client, "123456789012")

	require.NoError(t, adapter.DeleteByTag(t.Context(), "svc", "develop-1"))
	require.NoError(t, adapter.DeleteByDigest(t.Context(), "svc", "sha256:ccc"))
	require.Len(t, client.deleted, 2)
	require.Equal(t, "develop-1", aws.ToString(client.deleted[0].ImageTag))
	require.Equal(t, "sha256:ccc", aws.ToString(client.deleted[1].ImageDigest))

	err := adapter.DeleteByTag(t.Context(), "svc", "")
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestRegistryECRAdapterDeleteFailures(t *testing.T) {
	client := &fakeECR{failures: []ecrtypes.ImageFailure{{FailureCode: ecrtypes.ImageFailureCodeImageNotFound}}}
	adapter := NewRegistryECRAdapterWithClient(client, "")
	require.NoError(t, adapter.DeleteByTag(t.Context(), "svc", "gone-1"))

	client.failures = []ecrtypes.ImageFailure{{
		FailureCode:   ecrtypes.ImageFailureCodeImageTagDoesNotMatchDigest,
		FailureReason: aws.String("referenced"),
	}}
	err := adapter.DeleteByDigest(t.Context(), "svc", "sha256:aaa")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}
