package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluorite-flake/internal/services"
)

type stubSTS struct {
	err error
}

func (s *stubSTS) GetCallerIdentity(ctx context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/octocat"),
	}, nil
}

type stubS3 struct {
	buckets   []s3types.Bucket
	listErr   error
	createErr error
	deleteErr error
	created   []string
	deleted   []string
}

func (s *stubS3) ListBuckets(ctx context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &s3.ListBucketsOutput{Buckets: s.buckets}, nil
}

func (s *stubS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, aws.ToString(params.Bucket))
	return &s3.CreateBucketOutput{}, nil
}

func (s *stubS3) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	s.deleted = append(s.deleted, aws.ToString(params.Bucket))
	return &s3.DeleteBucketOutput{}, nil
}

type stubIAM struct {
	users []iamtypes.User
	err   error
}

func (s *stubIAM) ListUsers(ctx context.Context, _ *iam.ListUsersInput, _ ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &iam.ListUsersOutput{Users: s.users}, nil
}

func readyClients() (Clients, *stubS3) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s3stub := &stubS3{buckets: []s3types.Bucket{
		{Name: aws.String("assets"), CreationDate: &created},
		{Name: aws.String("backups"), CreationDate: &created},
	}}
	return Clients{
		STS: &stubSTS{},
		S3:  s3stub,
		IAM: &stubIAM{users: []iamtypes.User{{
			UserId:   aws.String("AIDA1"),
			UserName: aws.String("octocat"),
			Arn:      aws.String("arn:aws:iam::123456789012:user/octocat"),
		}}},
	}, s3stub
}

func TestLifecycle(t *testing.T) {
	clients, _ := readyClients()
	a := NewWithClients(nil, clients)
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx))
	ok, err := a.Authenticate(ctx, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, a.Connect(ctx))
	assert.True(t, a.GetStatus().Connected)
}

func TestAuthenticateRejection(t *testing.T) {
	clients, _ := readyClients()
	clients.STS = &stubSTS{err: errors.New("InvalidClientTokenId")}
	a := NewWithClients(nil, clients)

	ok, err := a.Authenticate(context.Background(), nil)
	require.NoError(t, err, "bad credentials are a rejection, not an error")
	assert.False(t, ok)
}

func TestConnectWithoutCredentialsRejected(t *testing.T) {
	clients, _ := readyClients()
	clients.STS = &stubSTS{err: errors.New("InvalidClientTokenId")}
	a := NewWithClients(nil, clients)

	err := a.Connect(context.Background())
	require.ErrorIs(t, err, services.ErrNotAuthenticated)
	assert.False(t, a.GetStatus().Connected)
}

func TestConnectEmitsDashboardSnapshot(t *testing.T) {
	clients, _ := readyClients()
	a := NewWithClients(nil, clients)

	var events []services.Event
	a.SetEventCallback(func(e services.Event) { events = append(events, e) })
	require.NoError(t, a.Connect(context.Background()))

	var snapshots []*services.DashboardData
	for _, e := range events {
		if e.Type == services.EventDashboardUpdated {
			snapshots = append(snapshots, e.Payload.(*services.DashboardData))
		}
	}
	require.Len(t, snapshots, 1)
	assert.Equal(t, "aws", snapshots[0].Service)
}

func TestHealthCheckIAMDenialDegrades(t *testing.T) {
	clients, _ := readyClients()
	clients.IAM = &stubIAM{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}}
	a := NewWithClients(nil, clients)

	hs := a.HealthCheck(context.Background())
	assert.Equal(t, services.HealthDegraded, hs.Status)
	require.Len(t, hs.Checks, 3)
	assert.Equal(t, services.CheckWarn, hs.Checks[2].Status)
	assert.Equal(t, "IAM listing denied", hs.Checks[2].Message)
}

func TestHealthCheckIAMOutageFails(t *testing.T) {
	clients, _ := readyClients()
	clients.IAM = &stubIAM{err: errors.New("dial tcp: connection refused")}
	a := NewWithClients(nil, clients)

	hs := a.HealthCheck(context.Background())
	require.Len(t, hs.Checks, 3)
	assert.Equal(t, services.CheckFail, hs.Checks[2].Status)
	assert.Equal(t, "IAM unreachable", hs.Checks[2].Message)
}

func TestListResources(t *testing.T) {
	clients, _ := readyClients()
	a := NewWithClients(nil, clients)

	all, err := a.ListResources(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "bucket", all[0].Type)
	assert.Equal(t, "assets", all[0].Name)
	assert.Equal(t, "user", all[2].Type)

	buckets, err := a.ListResources(context.Background(), "bucket")
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestGetDashboardDataIncludesIdentity(t *testing.T) {
	clients, _ := readyClients()
	a := NewWithClients(map[string]string{"region": "eu-central-1"}, clients)

	data, err := a.GetDashboardData(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", data.Details["account"])
	assert.Equal(t, "eu-central-1", data.Details["region"])
	assert.NotNil(t, data.Metrics)
	assert.True(t, data.Metrics.Sampled)
}

func TestGetMetricsUsage(t *testing.T) {
	clients, _ := readyClients()
	a := NewWithClients(nil, clients)

	m, err := a.GetMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.Usage["s3Buckets"])
	assert.Equal(t, 1.0, m.Usage["iamUsers"])
}

func TestCreateBucketActionRespectsRegion(t *testing.T) {
	clients, s3stub := readyClients()
	a := NewWithClients(map[string]string{"region": "eu-central-1"}, clients)

	result := a.ExecuteAction(context.Background(), services.Action{
		Type:   "create-bucket",
		Params: map[string]string{"name": "new-bucket"},
	})
	require.True(t, result.Success)
	assert.Equal(t, []string{"new-bucket"}, s3stub.created)

	missing := a.ExecuteAction(context.Background(), services.Action{Type: "create-bucket"})
	assert.False(t, missing.Success)
	assert.Equal(t, services.ActionErrFailed, missing.Error.Code)
}

func TestDeleteBucketActionIdempotentOnMissingBucket(t *testing.T) {
	clients, s3stub := readyClients()
	a := NewWithClients(nil, clients)

	result := a.ExecuteAction(context.Background(), services.Action{
		Type:   "delete-bucket",
		Params: map[string]string{"name": "assets"},
	})
	require.True(t, result.Success)
	assert.Equal(t, []string{"assets"}, s3stub.deleted)

	clients.S3 = &stubS3{deleteErr: &smithy.GenericAPIError{Code: "NoSuchBucket"}}
	a = NewWithClients(nil, clients)
	result = a.ExecuteAction(context.Background(), services.Action{
		Type:   "delete-bucket",
		Params: map[string]string{"name": "ghost"},
	})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "already absent")
}

func TestCreateBucketActionIdempotentOnOwnedBucket(t *testing.T) {
	clients, _ := readyClients()
	clients.S3 = &stubS3{createErr: &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}}
	a := NewWithClients(nil, clients)

	result := a.ExecuteAction(context.Background(), services.Action{
		Type:   "create-bucket",
		Params: map[string]string{"name": "assets"},
	})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "already exists")
}

func TestUninitializedAdapterFailsQueries(t *testing.T) {
	a := New(nil)

	_, err := a.GetMetrics(context.Background(), nil)
	assert.Error(t, err)
	_, err = a.ListResources(context.Background(), "")
	assert.Error(t, err)
}
