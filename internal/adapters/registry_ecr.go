package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"registry-pruner/internal/ports"
	"registry-pruner/internal/types"
)

// ECRAPI is the subset of the ECR client used by the adapter.
type ECRAPI interface {
	ecr.ListImagesAPIClient
	BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

type RegistryECRAdapter struct {
	Client     ECRAPI
	RegistryID string
}

// NewRegistryECRAdapter loads the default AWS credential chain for region.
// A non-empty endpoint overrides the service URL (local emulators).
func NewRegistryECRAdapter(ctx context.Context, region string, endpoint string, registryID string) (RegistryECRAdapter, error) {
	if strings.TrimSpace(region) == "" {
		return RegistryECRAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("aws region is empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return RegistryECRAdapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load aws configuration").
			WithCause(err)
	}
	client := ecr.NewFromConfig(cfg, func(o *ecr.Options) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			o.BaseEndpoint = aws.String(trimmed)
		}
	})
	return NewRegistryECRAdapterWithClient(client, registryID), nil
}

func NewRegistryECRAdapterWithClient(client ECRAPI, registryID string) RegistryECRAdapter {
	return RegistryECRAdapter{Client: client, RegistryID: strings.TrimSpace(registryID)}
}

// ListImages pages through every image id of the repository. An image with
// several tags yields one record per tag.
func (a RegistryECRAdapter) ListImages(ctx context.Context, repository string) ([]types.ImageRecord, error) {
	input := &ecr.ListImagesInput{
		RepositoryName: aws.String(repository),
		RegistryId:     a.registryID(),
	}
	images := []types.ImageRecord{}
	paginator := ecr.NewListImagesPaginator(a.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, ecrError(err, repository, "failed to list images")
		}
		for _, id := range page.ImageIds {
			images = append(images, types.ImageRecord{
				Tag:    aws.ToString(id.ImageTag),
				Digest: aws.ToString(id.ImageDigest),
			})
		}
	}
	return images, nil
}

func (a RegistryECRAdapter) DeleteByTag(ctx context.Context, repository string, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image tag is empty")
	}
	return a.batchDelete(ctx, repository, ecrtypes.ImageIdentifier{ImageTag: aws.String(tag)})
}

func (a RegistryECRAdapter) DeleteByDigest(ctx context.Context, repository string, digest string) error {
	if strings.TrimSpace(digest) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image digest is empty")
	}
	return a.batchDelete(ctx, repository, ecrtypes.ImageIdentifier{ImageDigest: aws.String(digest)})
}

func (a RegistryECRAdapter) batchDelete(ctx context.Context, repository string, id ecrtypes.ImageIdentifier) error {
	out, err := a.Client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(repository),
		RegistryId:     a.registryID(),
		ImageIds:       []ecrtypes.ImageIdentifier{id},
	})
	if err != nil {
		return ecrError(err, repository, "failed to delete image")
	}
	for _, failure := range out.Failures {
		if failure.FailureCode == ecrtypes.ImageFailureCodeImageNotFound {
			continue
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to delete image").
			WithCause(fmt.Errorf("code=%s reason=%s", failure.FailureCode, aws.ToString(failure.FailureReason)))
	}
	return nil
}

func (a RegistryECRAdapter) registryID() *string {
	if a.RegistryID == "" {
		return nil
	}
	return aws.String(a.RegistryID)
}

func ecrError(err error, repository string, msg string) error {
	var notFound *ecrtypes.RepositoryNotFoundException
	if errors.As(err, &notFound) {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repository not found: " + repository).
			WithCause(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(err)
}

var _ ports.RegistryPort = RegistryECRAdapter{}
