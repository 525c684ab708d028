package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"stakevault/core"
	"stakevault/native/staking"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	// Mutating methods are rate limited per client address.
	mutationRatePerSecond = 5
	mutationBurst         = 10
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
	codeOperationFail  = -32030
)

type Server struct {
	node   *core.Node
	logger *slog.Logger

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	authToken string
}

// NewServer creates an RPC server over the node. The bearer token guarding
// mutating methods is read from SVT_RPC_TOKEN; an empty token disables auth
// (local development only).
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:      node,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
		authToken: strings.TrimSpace(os.Getenv("SVT_RPC_TOKEN")),
	}
}

// Start serves JSON-RPC on addr until the listener fails. The prometheus
// endpoint shares the listener under /metrics.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type authError struct {
	Code    int
	Message string
}

func (s *Server) requireAuth(r *http.Request) *authError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return &authError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &authError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func (s *Server) allowMutation(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.mu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(mutationRatePerSecond), mutationBurst)
		s.limiters[host] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch req.Method {
	// staking mutations
	case "staking_stake":
		s.mutating(w, r, &req, s.handleStakingStake)
	case "staking_redeem":
		s.mutating(w, r, &req, s.handleStakingRedeem)
	case "staking_claimInterest":
		s.mutating(w, r, &req, s.handleStakingClaimInterest)
	case "staking_sweep":
		s.mutating(w, r, &req, s.handleStakingSweep)
	case "staking_transferOwnership":
		s.mutating(w, r, &req, s.handleStakingTransferOwnership)
	// staking queries
	case "staking_getAccruedInterest":
		s.handleStakingGetAccruedInterest(w, r, &req)
	case "staking_position":
		s.handleStakingPosition(w, r, &req)
	case "staking_totalStaked":
		s.handleStakingTotalStaked(w, r, &req)
	case "staking_owner":
		s.handleStakingOwner(w, r, &req)
	case "staking_token":
		s.handleStakingToken(w, r, &req)
	// token ledger
	case "token_balanceOf":
		s.handleTokenBalanceOf(w, r, &req)
	case "token_allowance":
		s.handleTokenAllowance(w, r, &req)
	case "token_approve":
		s.mutating(w, r, &req, s.handleTokenApprove)
	case "token_transfer":
		s.mutating(w, r, &req, s.handleTokenTransfer)
	case "token_mint":
		s.mutating(w, r, &req, s.handleTokenMint)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

// mutating applies the auth and rate-limit gate shared by all state-changing
// methods before delegating to the handler.
func (s *Server) mutating(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, nil)
		return
	}
	if !s.allowMutation(r) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
		return
	}
	next(w, r, req)
}

// writeOperationError maps engine failures onto stable JSON-RPC errors. Each
// sentinel keeps its descriptive reason string as the message.
func writeOperationError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusBadRequest
	code := codeOperationFail
	switch {
	case errors.Is(err, staking.ErrUnauthorizedCaller):
		status = http.StatusForbidden
	case errors.Is(err, staking.ErrReentrantCall):
		status = http.StatusConflict
	case errors.Is(err, staking.ErrTransferFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, staking.ErrNilState):
		status = http.StatusInternalServerError
		code = codeServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}
