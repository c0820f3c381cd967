package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

const (
	uploadURLValidity = 15 * time.Minute
	// maxImportBytes caps the size of an uploaded code list.
	maxImportBytes = 8 << 20
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in, optFns...)
	}
)

// ImportService moves large coupon batches through object storage: an admin
// uploads a text file with one code per line to a presigned URL, then asks
// for it to be imported.
type ImportService struct {
	admin  *AdminService
	config *config.Config
	logger logging.Logger
}

func NewImportService(admin *AdminService, cfg *config.Config, l logging.Logger) *ImportService {
	return &ImportService{admin: admin, config: cfg, logger: l.With("module", "imports")}
}

// CouponStorageKey returns a fresh object key for a code list of class.
func CouponStorageKey(class models.CouponClass) string {
	d := time.Now()
	return fmt.Sprintf("coupons/%s/%d/%d/%d/%v", class, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ImportService) s3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// CouponUploadURL returns the object key and a presigned PUT URL for a new
// code list of class.
func (s *ImportService) CouponUploadURL(ctx context.Context, adminID int64, class models.CouponClass) (string, string, error) {
	if err := s.admin.authorize(adminID); err != nil {
		return "", "", err
	}
	if !class.Valid() {
		return "", "", common.ErrInvalidInput
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := CouponStorageKey(class)

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		return "", "", err
	}

	s.logger.Info(ctx, "upload url issued", "admin_id", adminID, "class", class, "key", key)
	return key, req.URL, nil
}

// ImportCoupons reads the object at key and adds its lines as coupons of
// class, with the same rules as AddCoupons.
func (s *ImportService) ImportCoupons(ctx context.Context, adminID int64, class models.CouponClass, key string) (*AddResult, error) {
	if err := s.admin.authorize(adminID); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" || !class.Valid() {
		return nil, common.ErrInvalidInput
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	out, err := getObject(client, ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("%w: coupon list exceeds %d bytes", common.ErrInvalidInput, maxImportBytes)
	}

	codes, err := readCodes(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}

	res, err := s.admin.addCoupons(ctx, class, codes)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "coupons imported", "admin_id", adminID, "class", class, "key", key,
		"added", res.Added, "skipped", res.Skipped)
	return res, nil
}

func readCodes(r io.Reader) ([]string, error) {
	var codes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ln := strings.TrimSpace(sc.Text()); ln != "" {
			codes = append(codes, ln)
		}
	}
	return codes, sc.Err()
}
