// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client the target needs.
type S3API interface {
	s3.ListObjectsV2APIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Target stores archives in a bucket, e.g. on Ceph RGW or MinIO.
type S3Target struct {
	Client   S3API
	Uploader Uploader
	Bucket   string
	Prefix   string
}

// NewS3Target builds the client from the environment (AWS_* variables,
// shared config) unless static keys are given.
func NewS3Target(ctx context.Context, cfg S3Config) (*S3Target, error) {
	var opts []func(*awsconfig.LoadOptions) error
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts = append(opts, awsconfig.WithRegion(region))
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Target{
		Client:   client,
		Uploader: manager.NewUploader(client),
		Bucket:   cfg.Bucket,
		Prefix:   strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (t *S3Target) Name() string { return "s3" }

func (t *S3Target) key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return t.Prefix + "/" + name
}

func (t *S3Target) Upload(ctx context.Context, file, name string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = t.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.Bucket),
		Key:         aws.String(t.key(name)),
		Body:        f,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", t.Bucket, t.key(name), err)
	}
	return nil
}

func (t *S3Target) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(t.Bucket)}
	if t.Prefix != "" {
		input.Prefix = aws.String(t.Prefix + "/")
	}

	// names are keys relative to the prefix, Delete adds it back
	var names []string
	paginator := s3.NewListObjectsV2Paginator(t.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", t.Bucket, t.Prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if t.Prefix != "" {
				key = strings.TrimPrefix(key, t.Prefix+"/")
			}
			names = append(names, key)
		}
	}
	return names, nil
}

func (t *S3Target) Delete(ctx context.Context, names []string) error {
	for _, n := range names {
		_, err := t.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(t.Bucket),
			Key:    aws.String(t.key(n)),
		})
		if err != nil {
			return fmt.Errorf("deleting s3://%s/%s: %w", t.Bucket, t.key(n), err)
		}
	}
	return nil
}
