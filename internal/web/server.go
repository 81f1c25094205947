// Package web exposes the game engine to the browser UI as a small JSON API.
// Handlers translate requests into single engine calls and render the
// returned snapshot; no game logic lives here.
package web

import (
	"net/http"
	"sync"

	result "github.com/JustinKnueppel/go-result"
	"github.com/gin-gonic/gin"

	"github.com/stop1love1/death-point/internal/game"
)

// Server wraps the engine behind HTTP handlers. The engine assumes a single
// serialized writer, so every handler holds the mutex for its full call.
type Server struct {
	mu     sync.Mutex
	engine *game.Engine
	router *gin.Engine
}

// NewServer builds the router.
func NewServer(engine *game.Engine) *Server {
	s := &Server{engine: engine}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	api.GET("/game", s.getGame)
	api.POST("/game", s.startGame)
	api.DELETE("/game", s.restartGame)
	api.POST("/game/score", s.addScore)
	api.POST("/game/undo", s.undoLast)
	api.POST("/game/next-turn", s.nextTurn)
	api.GET("/game/estimates", s.getEstimates)

	s.router = r
	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error { return s.router.Run(addr) }

type startRequest struct {
	Names    []string `json:"names"`
	MaxScore int      `json:"maxScore"`
}

type scoreRequest struct {
	PlayerID string `json:"playerId"`
	Delta    int    `json:"delta"`
}

type estimate struct {
	PlayerID        string `json:"playerId"`
	LossProbability int    `json:"lossProbability"`
	ExpectedTurns   *int   `json:"expectedTurns"`
}

func (s *Server) getGame(c *gin.Context) {
	s.mu.Lock()
	snap := s.engine.Snapshot()
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"game": snap})
}

func (s *Server) startGame(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.MaxScore == 0 {
		req.MaxScore = game.DefaultMaxScore
	}
	s.mu.Lock()
	res := s.engine.Start(req.Names, req.MaxScore)
	s.mu.Unlock()
	renderResult(c, res)
}

func (s *Server) restartGame(c *gin.Context) {
	s.mu.Lock()
	err := s.engine.Restart()
	s.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.mu.Lock()
	res := s.engine.AddScore(req.PlayerID, req.Delta)
	s.mu.Unlock()
	renderResult(c, res)
}

func (s *Server) undoLast(c *gin.Context) {
	s.mu.Lock()
	res := s.engine.UndoLast()
	s.mu.Unlock()
	renderResult(c, res)
}

func (s *Server) nextTurn(c *gin.Context) {
	s.mu.Lock()
	res := s.engine.NextTurn()
	s.mu.Unlock()
	renderResult(c, res)
}

func (s *Server) getEstimates(c *gin.Context) {
	s.mu.Lock()
	snap := s.engine.Snapshot()
	s.mu.Unlock()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"estimates": []estimate{}})
		return
	}
	estimates := make([]estimate, 0, len(snap.Players))
	for _, p := range snap.Players {
		e := estimate{
			PlayerID:        p.ID,
			LossProbability: game.LossProbability(snap, p.ID),
		}
		if turns, ok := game.ExpectedTurnsToFinish(snap, p.ID); ok {
			e.ExpectedTurns = &turns
		}
		estimates = append(estimates, e)
	}
	c.JSON(http.StatusOK, gin.H{"estimates": estimates})
}

// renderResult maps an engine result onto HTTP: snapshots render as 200,
// rejected input as 422 with the message, storage faults as 500.
func renderResult(c *gin.Context, res result.Result[*game.State]) {
	if res.IsOk() {
		c.JSON(http.StatusOK, gin.H{"game": res.Unwrap()})
		return
	}
	err := res.UnwrapErr()
	if game.IsValidation(err) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
