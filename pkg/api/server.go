// Package api exposes the exchange over REST and WebSocket. It is a thin
// translation layer: JSON in, engine instructions through the exchange, JSON
// and event streams out. No matching state lives here.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/crestdex/crest/pkg/app/exchange"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
)

type Server struct {
	x      *exchange.Exchange
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
}

func NewServer(x *exchange.Exchange, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		x:      x,
		router: mux.NewRouter(),
		hub:    NewHub(),
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/digest", s.handleGetDigest).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/cancel_all", s.handleCancelAll).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Info("api_listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Broadcast implements exchange.Broadcaster: every core event goes out on the
// "events:<symbol>" channel as it is emitted.
func (s *Server) Broadcast(symbol string, e events.Event) {
	s.hub.BroadcastToChannel("events:"+symbol, WSEvent{
		Channel:   "events:" + symbol,
		Symbol:    symbol,
		Event:     map[string]interface{}{"type": e.Type(), "data": e},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.x.Markets())
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	depth := 20
	if q := r.URL.Query().Get("depth"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			depth = n
		}
	}

	bids, err := s.x.Depth(symbol, types.Buy, depth)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	asks, _ := s.x.Depth(symbol, types.Sell, depth)

	respondJSON(w, OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	digest, err := s.x.Digest(symbol)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondJSON(w, DigestResponse{Symbol: symbol, Digest: digest.Hex()})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "missing symbol", "")
		return
	}

	res, err := s.x.PlaceOrder(req.Symbol, req.OrderRequest)
	if err != nil {
		respondCoreError(w, err)
		return
	}

	s.broadcastOrderbook(req.Symbol)
	respondJSON(w, SubmitOrderResponse{Status: "ok", Result: res})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	id, err := types.ParseOrderID(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order_id", err.Error())
		return
	}
	if !common.IsHexAddress(req.Owner) {
		respondError(w, http.StatusBadRequest, "invalid owner address", "")
		return
	}

	if err := s.x.CancelOrder(req.Symbol, id, common.HexToAddress(req.Owner)); err != nil {
		respondCoreError(w, err)
		return
	}

	s.broadcastOrderbook(req.Symbol)
	respondJSON(w, map[string]string{"status": "ok", "order_id": req.OrderID})
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	var req CancelAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.Owner) {
		respondError(w, http.StatusBadRequest, "invalid owner address", "")
		return
	}

	n, err := s.x.CancelAll(req.Symbol, common.HexToAddress(req.Owner))
	if err != nil {
		respondCoreError(w, err)
		return
	}

	s.broadcastOrderbook(req.Symbol)
	respondJSON(w, CancelAllResponse{Status: "ok", Cancelled: n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) broadcastOrderbook(symbol string) {
	bids, err := s.x.Depth(symbol, types.Buy, 20)
	if err != nil {
		return
	}
	asks, _ := s.x.Depth(symbol, types.Sell, 20)

	s.hub.BroadcastToChannel("orderbook:"+symbol, OrderbookUpdate{
		Channel:   "orderbook:" + symbol,
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixMilli(),
	})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errStr string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errStr, Message: message})
}

// respondCoreError maps core sentinel errors onto HTTP statuses.
func respondCoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrOrderNotFound), errors.Is(err, types.ErrMarketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrMarketExists):
		status = http.StatusConflict
	case errors.Is(err, types.ErrInvalidPrice),
		errors.Is(err, types.ErrInvalidQuantity),
		errors.Is(err, types.ErrOverflow),
		errors.Is(err, types.ErrInsufficientLiquidity),
		errors.Is(err, types.ErrWouldCross),
		errors.Is(err, types.ErrMarketClosed),
		errors.Is(err, types.ErrFuelExhausted):
		status = http.StatusUnprocessableEntity
	}
	respondError(w, status, err.Error(), "")
}
