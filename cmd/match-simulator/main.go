package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/pool-bet-platform/internal/shared/config"
	sharedkafka "github.com/radieske/pool-bet-platform/internal/shared/kafka"
	"github.com/radieske/pool-bet-platform/internal/shared/logger"
	"github.com/radieske/pool-bet-platform/pkg/contracts/events"

	mdto "github.com/radieske/pool-bet-platform/internal/match-simulator/dto"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Catálogo fixo de partidas simuladas
	matchCatalog = []mdto.LiveMatch{
		{EventID: "MATCH_001", Sport: "soccer", League: "Brasileirão", HomeTeam: "Flamengo", AwayTeam: "Palmeiras"},
		{EventID: "MATCH_002", Sport: "soccer", League: "Brasileirão", HomeTeam: "Grêmio", AwayTeam: "Internacional"},
		{EventID: "MATCH_003", Sport: "basketball", League: "NBB", HomeTeam: "Flamengo Basquete", AwayTeam: "Franca"},
		{EventID: "MATCH_004", Sport: "soccer", League: "Brasileirão", HomeTeam: "São Paulo", AwayTeam: "Vasco"},
	}

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulator_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	matchesConcluded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_matches_concluded_total",
		Help: "Partidas concluídas e publicadas no Kafka",
	})
)

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes WebSocket e o broadcast do estado das partidas.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{clients: make(map[string]*clientConn), log: log}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// simulation avança as partidas a cada tick e publica o resultado final
// no Kafka quando uma partida chega ao fim.
type simulation struct {
	log     *zap.Logger
	hub     *hub
	results *sharedkafka.Writer
	matches []mdto.LiveMatch
	round   int
}

func (s *simulation) tick(ctx context.Context) {
	for i := range s.matches {
		m := &s.matches[i]
		if m.Status != mdto.StatusLive {
			continue
		}
		m.Minute += 3
		if rand.Intn(100) < 12 {
			if rand.Intn(2) == 0 {
				m.HomeScore++
			} else {
				m.AwayScore++
			}
		}
		if m.Minute >= 90 {
			m.Status = mdto.StatusFinished
			s.publishResult(ctx, *m)
		}
		s.hub.broadcast(*m)
	}

	// todas terminaram: começa uma nova rodada com event ids novos
	if s.allFinished() {
		s.round++
		for i := range s.matches {
			s.matches[i].EventID = fmt.Sprintf("%s_R%d", matchCatalog[i].EventID, s.round)
			s.matches[i].HomeScore = 0
			s.matches[i].AwayScore = 0
			s.matches[i].Minute = 0
			s.matches[i].Status = mdto.StatusLive
		}
	}
}

func (s *simulation) allFinished() bool {
	for _, m := range s.matches {
		if m.Status == mdto.StatusLive {
			return false
		}
	}
	return true
}

func (s *simulation) publishResult(ctx context.Context, m mdto.LiveMatch) {
	result := events.MatchResult{
		EventID:     m.EventID,
		Sport:       m.Sport,
		League:      m.League,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		Outcome:     m.Outcome(),
		HomeScore:   m.HomeScore,
		AwayScore:   m.AwayScore,
		ConcludedAt: time.Now().UTC(),
		Source:      "match-simulator",
	}
	b, _ := json.Marshal(result)

	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sharedkafka.WriteJSON(wctx, s.results, m.EventID, b); err != nil {
		s.log.Error("publish match result failed",
			zap.String("event_id", m.EventID), zap.Error(err))
		return
	}
	matchesConcluded.Inc()
	s.log.Info("match concluded",
		zap.String("event_id", m.EventID),
		zap.String("outcome", result.Outcome),
		zap.Int("home", m.HomeScore),
		zap.Int("away", m.AwayScore),
	)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent, matchesConcluded)

	results := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResults)
	defer results.Close()

	h := newHub(log)
	sim := &simulation{
		log:     log,
		hub:     h,
		results: results,
		matches: append([]mdto.LiveMatch(nil), matchCatalog...),
	}
	for i := range sim.matches {
		sim.matches[i].Status = mdto.StatusLive
	}

	ctx := context.Background()
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			sim.tick(ctx)
		}
	}()

	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := ":" + cfg.MetricsPort
		log.Info("match simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := ":" + cfg.HTTPPort
	log.Info("match simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
