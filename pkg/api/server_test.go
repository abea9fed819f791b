package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/stablerail/cctp-orchestrator/pkg/app/errors"
	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
	"github.com/stablerail/cctp-orchestrator/pkg/config"
	"github.com/stablerail/cctp-orchestrator/pkg/evm"
)

type mockOrchestrator struct {
	InitiateBridgeFunc         func(ctx context.Context, params bridge.InitiateParams) (*bridge.InitiateResult, error)
	ProcessBurnTransactionFunc func(ctx context.Context, bridgeID, txHash, sourceChain string) error
	CompleteBridgeFunc         func(ctx context.Context, bridgeID string) (*bridge.CompleteResult, error)
	RetryAttestationFunc       func(ctx context.Context, bridgeID string) error
	GetBridgeStatusFunc        func(ctx context.Context, bridgeID string) (*bridge.BridgeRecord, error)
	GetAllBridgeStatusesFunc   func(ctx context.Context) ([]*bridge.BridgeRecord, error)
}

func (m *mockOrchestrator) InitiateBridge(ctx context.Context, params bridge.InitiateParams) (*bridge.InitiateResult, error) {
	if m.InitiateBridgeFunc != nil {
		return m.InitiateBridgeFunc(ctx, params)
	}
	return &bridge.InitiateResult{
		BridgeID: "bridge_1_abcd1234",
		TxData:   &evm.TxData{To: "0xmessenger", Data: "0x00", Value: "0x0", ChainID: 11155111},
	}, nil
}

func (m *mockOrchestrator) ProcessBurnTransaction(ctx context.Context, bridgeID, txHash, sourceChain string) error {
	if m.ProcessBurnTransactionFunc != nil {
		return m.ProcessBurnTransactionFunc(ctx, bridgeID, txHash, sourceChain)
	}
	return nil
}

func (m *mockOrchestrator) CompleteBridge(ctx context.Context, bridgeID string) (*bridge.CompleteResult, error) {
	if m.CompleteBridgeFunc != nil {
		return m.CompleteBridgeFunc(ctx, bridgeID)
	}
	return &bridge.CompleteResult{Success: true}, nil
}

func (m *mockOrchestrator) RetryAttestation(ctx context.Context, bridgeID string) error {
	if m.RetryAttestationFunc != nil {
		return m.RetryAttestationFunc(ctx, bridgeID)
	}
	return nil
}

func (m *mockOrchestrator) GetBridgeStatus(ctx context.Context, bridgeID string) (*bridge.BridgeRecord, error) {
	if m.GetBridgeStatusFunc != nil {
		return m.GetBridgeStatusFunc(ctx, bridgeID)
	}
	return &bridge.BridgeRecord{
		ID:          bridgeID,
		Status:      bridge.StatusPending,
		SourceChain: "sepolia",
		Destination: bridge.DestinationWallet,
		Amount:      decimal.NewFromInt(1),
		UserAddress: "0xabc123",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *mockOrchestrator) GetAllBridgeStatuses(ctx context.Context) ([]*bridge.BridgeRecord, error) {
	if m.GetAllBridgeStatusesFunc != nil {
		return m.GetAllBridgeStatusesFunc(ctx)
	}
	return []*bridge.BridgeRecord{}, nil
}

func newTestServer(orc Orchestrator, auth config.AuthConfig) http.Handler {
	if orc == nil {
		orc = &mockOrchestrator{}
	}
	return NewServer(orc, auth, true, zap.NewNop()).Router()
}

func TestHealthAndReady(t *testing.T) {
	router := newTestServer(nil, config.AuthConfig{})

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestInitiateBridgeEndpoint(t *testing.T) {
	var got bridge.InitiateParams
	orc := &mockOrchestrator{
		InitiateBridgeFunc: func(_ context.Context, params bridge.InitiateParams) (*bridge.InitiateResult, error) {
			got = params
			return &bridge.InitiateResult{BridgeID: "bridge_1_abcd1234"}, nil
		},
	}
	router := newTestServer(orc, config.AuthConfig{})

	body := `{
		"source_chain": "sepolia",
		"destination_chain": "aptos",
		"amount": "10.5",
		"recipient_address": "0xabc123",
		"destination": "vault"
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sepolia", got.SourceChain)
	assert.Equal(t, bridge.DestinationVault, got.Destination)

	var resp bridge.InitiateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bridge_1_abcd1234", resp.BridgeID)
}

func TestInitiateBridgeValidation(t *testing.T) {
	router := newTestServer(nil, config.AuthConfig{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing amount", `{"source_chain":"sepolia","destination_chain":"aptos","recipient_address":"0x01"}`},
		{"bad destination", `{"source_chain":"sepolia","destination_chain":"aptos","amount":"1","recipient_address":"0x01","destination":"teapot"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProcessBurnEndpoint(t *testing.T) {
	var gotID, gotHash, gotChain string
	orc := &mockOrchestrator{
		ProcessBurnTransactionFunc: func(_ context.Context, bridgeID, txHash, sourceChain string) error {
			gotID, gotHash, gotChain = bridgeID, txHash, sourceChain
			return nil
		},
	}
	router := newTestServer(orc, config.AuthConfig{})

	body := `{"tx_hash":"0xburn","source_chain":"sepolia"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/burn", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b1", gotID)
	assert.Equal(t, "0xburn", gotHash)
	assert.Equal(t, "sepolia", gotChain)
}

func TestGetBridgeNotFound(t *testing.T) {
	orc := &mockOrchestrator{
		GetBridgeStatusFunc: func(_ context.Context, bridgeID string) (*bridge.BridgeRecord, error) {
			return nil, apperrors.ResourceNotFoundError(nil, "bridge not found")
		},
	}
	router := newTestServer(orc, config.AuthConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bridges/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bridge not found", resp["error"])
}

func TestRetryEndpointReportsPreconditionInBody(t *testing.T) {
	orc := &mockOrchestrator{
		RetryAttestationFunc: func(_ context.Context, _ string) error {
			return apperrors.ConflictError(nil, "bridge is not in failed state")
		},
	}
	router := newTestServer(orc, config.AuthConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/retry", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp retryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "bridge is not in failed state", resp.Message)
}

func TestRetryEndpointSuccess(t *testing.T) {
	router := newTestServer(nil, config.AuthConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/retry", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp retryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestJWTGuardsMutatingEndpoints(t *testing.T) {
	auth := config.AuthConfig{JWTSecret: "test-secret", Issuer: "orchestrator"}
	router := newTestServer(nil, auth)

	// no token
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/retry", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong secret
	badToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": "orchestrator"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/retry", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "orchestrator",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/bridges/b1/retry", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// read endpoints stay open
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bridges", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
