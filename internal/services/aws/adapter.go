// Package aws adapts the AWS SDK to the service adapter contract. Unlike
// the CLI-backed adapters it talks to the APIs directly through
// aws-sdk-go-v2.
package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/services"
	"fluorite-flake/pkg/logging"
)

// The adapter only needs one call per client; narrow interfaces keep the
// SDK stubable in tests.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type s3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

type iamAPI interface {
	ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error)
}

// Clients bundles the SDK clients the adapter uses.
type Clients struct {
	STS stsAPI
	S3  s3API
	IAM iamAPI
}

// Adapter monitors an AWS account: caller identity, S3 buckets, IAM users.
type Adapter struct {
	*services.BaseAdapter
	region  string
	profile string
	clients *Clients
}

// New creates an AWS adapter. Clients are built lazily in Initialize from
// the default credential chain, honoring the configured region and profile.
func New(cfg config.ServiceConfig) *Adapter {
	return newAdapter(cfg, nil)
}

// NewWithClients creates an adapter over pre-built clients. Tests use this
// to stub the SDK.
func NewWithClients(cfg config.ServiceConfig, clients Clients) *Adapter {
	return newAdapter(cfg, &clients)
}

func newAdapter(cfg config.ServiceConfig, clients *Clients) *Adapter {
	a := &Adapter{
		BaseAdapter: services.NewBaseAdapter("aws", "AWS", "1.0.0", services.Capabilities{
			ResourceManagement: true,
			FileOperations:     true,
			UserManagement:     true,
		}),
		region:  cfg.Get("region", "us-east-1"),
		profile: cfg.Get("profile", ""),
		clients: clients,
	}
	a.RegisterAction("create-bucket", a.actionCreateBucket)
	a.RegisterAction("delete-bucket", a.actionDeleteBucket)
	return a
}

// Initialize resolves the credential chain and builds the SDK clients. No
// network call happens here; a broken profile still surfaces because the
// shared config cannot be assembled.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.clients != nil {
		return nil
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.region),
	}
	if a.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(a.profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("aws: loading shared config: %w", err)
	}
	a.clients = &Clients{
		STS: sts.NewFromConfig(awsCfg),
		S3:  s3.NewFromConfig(awsCfg),
		IAM: iam.NewFromConfig(awsCfg),
	}
	return nil
}

// Authenticate verifies the credentials by resolving the caller identity.
// A rejected identity call is a rejection, not an error; only a nil client
// set (Initialize skipped) is a hard error.
func (a *Adapter) Authenticate(ctx context.Context, auth config.AuthConfig) (bool, error) {
	if a.clients == nil {
		return false, fmt.Errorf("aws: adapter not initialized")
	}
	if _, err := a.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		logging.Debug("AWS", "GetCallerIdentity failed: %v", err)
		a.SetAuthenticated(false)
		return false, nil
	}
	a.SetAuthenticated(true)
	return true, nil
}

// IsAuthenticated reports the last observed authentication state.
func (a *Adapter) IsAuthenticated(ctx context.Context) bool {
	return a.GetStatus().Authenticated
}

// Connect verifies S3 answers a listing call and publishes the initial
// dashboard snapshot. It fails with ErrNotAuthenticated when the caller
// identity cannot be resolved.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.clients == nil {
		return fmt.Errorf("aws: adapter not initialized")
	}
	if !a.IsAuthenticated(ctx) {
		if ok, err := a.Authenticate(ctx, nil); err != nil || !ok {
			return fmt.Errorf("aws: %w", services.ErrNotAuthenticated)
		}
	}
	if _, err := a.clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		a.SetStatusError(err)
		return fmt.Errorf("aws: reaching S3: %w", err)
	}
	a.SetConnected(true)
	a.EmitConnectSnapshot(ctx, a.GetDashboardData)
	return nil
}

// Disconnect drops the connected flag. SDK clients hold no session.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.SetConnected(false)
	return nil
}

// HealthCheck runs the standard check list.
func (a *Adapter) HealthCheck(ctx context.Context) services.HealthStatus {
	return a.RunChecks(ctx, []services.NamedCheck{
		{Name: "credentials", Run: func(ctx context.Context) (services.CheckState, string) {
			if a.clients == nil {
				return services.CheckFail, "clients not initialized"
			}
			if _, err := a.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
				return services.CheckFail, "credentials rejected"
			}
			return services.CheckPass, ""
		}},
		{Name: "s3-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			if a.clients == nil {
				return services.CheckFail, "clients not initialized"
			}
			if _, err := a.clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
				return services.CheckFail, "S3 unreachable"
			}
			return services.CheckPass, ""
		}},
		{Name: "iam-reachable", Run: func(ctx context.Context) (services.CheckState, string) {
			if a.clients == nil {
				return services.CheckFail, "clients not initialized"
			}
			if _, err := a.clients.IAM.ListUsers(ctx, &iam.ListUsersInput{}); err != nil {
				// IAM listing needs broader permissions than the rest;
				// a denied call degrades rather than fails the service.
				if accessDenied(err) {
					return services.CheckWarn, "IAM listing denied"
				}
				return services.CheckFail, "IAM unreachable"
			}
			return services.CheckPass, ""
		}},
	})
}

// GetDashboardData assembles a snapshot from independent best-effort fetches.
func (a *Adapter) GetDashboardData(ctx context.Context, opts *services.DataOptions) (*services.DashboardData, error) {
	if opts == nil {
		opts = &services.DataOptions{}
	}
	data := &services.DashboardData{
		Service:   a.GetName(),
		Timestamp: time.Now(),
		Status:    a.GetStatus(),
		Details:   map[string]string{"region": a.region},
	}

	if a.clients != nil {
		if identity, err := a.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err == nil {
			data.Details["account"] = aws.ToString(identity.Account)
			data.Details["arn"] = aws.ToString(identity.Arn)
		}
	}

	resources, err := a.ListResources(ctx, opts.ResourceType)
	if err != nil {
		logging.Warn("AWS", "Resource listing failed: %v", err)
	} else {
		data.Resources = resources
	}

	if !opts.SkipMetrics {
		if metrics, err := a.GetMetrics(ctx, nil); err == nil {
			data.Metrics = metrics
		} else {
			logging.Warn("AWS", "Metrics fetch failed: %v", err)
		}
	}
	return data, nil
}

// GetMetrics reports bucket and user counts as usage. CloudWatch is out of
// reach here, so the snapshot is marked sampled.
func (a *Adapter) GetMetrics(ctx context.Context, opts *services.MetricsOptions) (*services.Metrics, error) {
	if a.clients == nil {
		return nil, fmt.Errorf("aws: adapter not initialized")
	}
	buckets, err := a.clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("aws: listing buckets: %w", err)
	}

	usage := map[string]float64{"s3Buckets": float64(len(buckets.Buckets))}
	if users, err := a.clients.IAM.ListUsers(ctx, &iam.ListUsersInput{}); err == nil {
		usage["iamUsers"] = float64(len(users.Users))
	}
	return &services.Metrics{
		Timestamp: time.Now(),
		Usage:     usage,
		Sampled:   true,
	}, nil
}

// GetLogs replays the bucket inventory as a backlog; the SDK offers no log
// stream at this level, so the channel closes after it.
func (a *Adapter) GetLogs(ctx context.Context, opts services.LogOptions) (<-chan services.LogEntry, error) {
	resources, err := a.ListResources(ctx, "bucket")
	if err != nil {
		return nil, err
	}

	out := make(chan services.LogEntry, len(resources))
	go func() {
		defer close(out)
		if opts.Level == "error" {
			return
		}
		for _, r := range resources {
			entry := services.LogEntry{
				Timestamp: time.Now(),
				Service:   a.GetName(),
				Level:     "info",
				Message:   fmt.Sprintf("bucket %s present", r.Name),
				Source:    "s3",
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ListResources lists S3 buckets and IAM users. An empty resourceType
// returns both.
func (a *Adapter) ListResources(ctx context.Context, resourceType string) ([]services.Resource, error) {
	if a.clients == nil {
		return nil, fmt.Errorf("aws: adapter not initialized")
	}
	var resources []services.Resource

	if resourceType == "" || resourceType == "bucket" {
		buckets, err := a.clients.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return nil, fmt.Errorf("aws: listing buckets: %w", err)
		}
		for _, b := range buckets.Buckets {
			r := services.Resource{
				ID:     aws.ToString(b.Name),
				Type:   "bucket",
				Name:   aws.ToString(b.Name),
				Status: "available",
			}
			if b.CreationDate != nil {
				r.Metadata = map[string]string{"created": b.CreationDate.UTC().Format(time.RFC3339)}
			}
			resources = append(resources, r)
		}
	}

	if resourceType == "" || resourceType == "user" {
		users, err := a.clients.IAM.ListUsers(ctx, &iam.ListUsersInput{})
		if err != nil {
			if resourceType == "user" {
				return nil, fmt.Errorf("aws: listing users: %w", err)
			}
			logging.Debug("AWS", "IAM user listing failed: %v", err)
			return resources, nil
		}
		for _, u := range users.Users {
			resources = append(resources, services.Resource{
				ID:     aws.ToString(u.UserId),
				Type:   "user",
				Name:   aws.ToString(u.UserName),
				Status: "active",
				Metadata: map[string]string{
					"arn": aws.ToString(u.Arn),
				},
			})
		}
	}
	return resources, nil
}

// GetResource fetches a single resource by ID.
func (a *Adapter) GetResource(ctx context.Context, id, resourceType string) (*services.Resource, error) {
	resources, err := a.ListResources(ctx, resourceType)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		if resources[i].ID == id {
			return &resources[i], nil
		}
	}
	return nil, fmt.Errorf("aws: resource %q not found", id)
}

// ExecuteAction dispatches through the registered action table.
func (a *Adapter) ExecuteAction(ctx context.Context, action services.Action) services.ActionResult {
	return a.DispatchAction(ctx, action)
}

func (a *Adapter) actionCreateBucket(ctx context.Context, action services.Action) (string, error) {
	if a.clients == nil {
		return "", fmt.Errorf("adapter not initialized")
	}
	name := action.Params["name"]
	if name == "" {
		return "", fmt.Errorf("missing required param %q", "name")
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if a.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(a.region),
		}
	}
	if _, err := a.clients.S3.CreateBucket(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
			return fmt.Sprintf("bucket %s already exists in this account", name), nil
		}
		return "", err
	}
	return fmt.Sprintf("bucket %s created in %s", name, a.region), nil
}

func (a *Adapter) actionDeleteBucket(ctx context.Context, action services.Action) (string, error) {
	if a.clients == nil {
		return "", fmt.Errorf("adapter not initialized")
	}
	name := action.Params["name"]
	if name == "" {
		return "", fmt.Errorf("missing required param %q", "name")
	}
	if _, err := a.clients.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
			return fmt.Sprintf("bucket %s already absent", name), nil
		}
		return "", err
	}
	return fmt.Sprintf("bucket %s deleted", name), nil
}

// accessDenied reports whether err is an API-level authorization failure
// rather than a transport or throttling problem.
func accessDenied(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
		return true
	}
	return false
}
