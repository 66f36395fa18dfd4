package grpc

import (
	"context"
	"log/slog"
	"net"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/profileguard/internal/application/usecase"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/infrastructure/memory"
	"github.com/bibbank/profileguard/internal/testutil"
)

// --- Mock implementations ---

type fixedClassifier struct{ probability float64 }

func (f fixedClassifier) PredictProbability(context.Context, model.FeatureVector) (float64, string, error) {
	return f.probability, "fixed", nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildTestHandler(t *testing.T) *ProfileRiskHandler {
	t.Helper()
	scorer, err := service.NewHybridScorer(nil, nil, fixedClassifier{probability: 0.9}, nil,
		service.DefaultScoringPolicy(), testLogger())
	require.NoError(t, err)

	repo := memory.NewAssessmentRepository(10)
	return NewProfileRiskHandler(
		usecase.NewAssessAccount(scorer, repo, nil, nil, model.DefaultFeatureLimits(), testLogger()),
		usecase.NewGetAssessment(repo),
		testLogger(),
	)
}

// --- Tests ---

func TestAssessAccount(t *testing.T) {
	h := buildTestHandler(t)

	t.Run("scores a valid payload", func(t *testing.T) {
		resp, err := h.AssessAccount(context.Background(), &AssessAccountRequest{Features: testutil.SuspiciousPayload(), Quick: true})
		require.NoError(t, err)
		assert.Equal(t, "Fake Account", resp.Prediction)
		assert.Equal(t, "High", resp.Confidence)
		assert.Equal(t, "v1", resp.PolicyVersion)
		assert.NotEmpty(t, resp.AssessmentID)
		assert.Len(t, resp.RiskFactors, 7)
	})

	t.Run("missing features", func(t *testing.T) {
		_, err := h.AssessAccount(context.Background(), &AssessAccountRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("validation error maps to invalid argument", func(t *testing.T) {
		f := testutil.SuspiciousPayload()
		f["followers"] = -1
		_, err := h.AssessAccount(context.Background(), &AssessAccountRequest{Features: f})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, status.Convert(err).Message(), "followers")
	})
}

func TestGetAssessment(t *testing.T) {
	h := buildTestHandler(t)
	created, err := h.AssessAccount(context.Background(), &AssessAccountRequest{Features: testutil.SuspiciousPayload()})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		resp, err := h.GetAssessment(context.Background(), &GetAssessmentRequest{ID: created.AssessmentID})
		require.NoError(t, err)
		assert.Equal(t, created.AssessmentID, resp.Assessment.ID.String())
		assert.Equal(t, created.RiskScore, resp.Assessment.Result.RiskScore)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := h.GetAssessment(context.Background(), &GetAssessmentRequest{ID: "not-a-uuid"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := h.GetAssessment(context.Background(), &GetAssessmentRequest{ID: uuid.NewString()})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("history not configured", func(t *testing.T) {
		bare := NewProfileRiskHandler(h.assessAccount, nil, testLogger())
		_, err := bare.GetAssessment(context.Background(), &GetAssessmentRequest{ID: created.AssessmentID})
		assert.Equal(t, codes.Unavailable, status.Code(err))
	})
}

func TestServer_OverBufconn(t *testing.T) {
	srv, err := NewServer(buildTestHandler(t), ServerConfig{EnableReflection: true}, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: HealthServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)

	var resp AssessAccountResponse
	err = conn.Invoke(ctx, "/"+ServiceName+"/AssessAccount",
		&AssessAccountRequest{Features: testutil.SuspiciousPayload(), Quick: true}, &resp,
		grpclib.CallContentSubtype(CodecName))
	require.NoError(t, err)
	assert.Equal(t, "Fake Account", resp.Prediction)

	var got GetAssessmentResponse
	err = conn.Invoke(ctx, "/"+ServiceName+"/GetAssessment",
		&GetAssessmentRequest{ID: resp.AssessmentID}, &got,
		grpclib.CallContentSubtype(CodecName))
	require.NoError(t, err)
	require.NotNil(t, got.Assessment)
	assert.Equal(t, resp.AssessmentID, got.Assessment.ID.String())
}

func TestRecoverUnary(t *testing.T) {
	info := &grpclib.UnaryServerInfo{FullMethod: "/" + ServiceName + "/AssessAccount"}
	_, err := recoverUnary(testLogger())(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
